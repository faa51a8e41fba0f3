package expand

import (
	"strings"
)

// ArgTokenType identifies the kind of an argument token
type ArgTokenType int

// The argument token types. A binding is the sequence KEY EQUALS [VALUE]
// and consecutive bindings are separated by a BOUNDARY
const (
	ArgKey ArgTokenType = iota
	ArgEquals
	ArgValue
	ArgBoundary
)

// String returns the name of the token type
func (t ArgTokenType) String() string {
	switch t {
	case ArgKey:
		return "KEY"
	case ArgEquals:
		return "EQUALS"
	case ArgValue:
		return "VALUE"
	case ArgBoundary:
		return "BOUNDARY"
	}
	return "UNKNOWN"
}

// ArgToken is a single token from the argument tail of a directive. The
// Offset is the byte offset of the token within the tail.
type ArgToken struct {
	Type   ArgTokenType
	Text   string
	Offset int
}

// Binding associates an argument name with its value
type Binding struct {
	Name  string
	Value string
}

// Args holds the bindings of one call in the order in which the names
// first appeared. Setting a name that is already bound replaces its value
// but keeps its position. The zero value is ready to use.
type Args struct {
	bindings []Binding
	index    map[string]int
}

// NewArgs returns an Args holding the given bindings, applied in order
func NewArgs(bindings ...Binding) Args {
	var a Args
	for _, b := range bindings {
		a.Set(b.Name, b.Value)
	}
	return a
}

// Set binds name to value; a later Set of the same name wins
func (a *Args) Set(name, value string) {
	if a.index == nil {
		a.index = make(map[string]int)
	}
	if i, ok := a.index[name]; ok {
		a.bindings[i].Value = value
		return
	}
	a.index[name] = len(a.bindings)
	a.bindings = append(a.bindings, Binding{Name: name, Value: value})
}

// Lookup returns the value bound to name. Names are case-sensitive.
func (a Args) Lookup(name string) (string, bool) {
	i, ok := a.index[name]
	if !ok {
		return "", false
	}
	return a.bindings[i].Value, true
}

// Len returns the number of distinct names bound
func (a Args) Len() int {
	return len(a.bindings)
}

// Bindings returns a copy of the bindings in order of first appearance
func (a Args) Bindings() []Binding {
	return append([]Binding(nil), a.bindings...)
}

// TokenizeArgs splits the argument tail of a directive into tokens.
//
// If the tail spans several lines each non-blank line holds one binding:
// the name runs up to the first '=' and the value is the rest of the line.
// A line with no name before an '=' is returned as a VALUE token with no
// preceding KEY.
//
// Otherwise a new binding starts at the beginning of the (trimmed) tail or
// wherever whitespace is immediately followed by a name and '='.
// Everything up to the next such boundary is value text, so values may
// hold commas, spaces and further '=' characters. Text before the first
// binding is returned as a VALUE token with no preceding KEY.
func TokenizeArgs(tail string) []ArgToken {
	if isMultiLine(tail) {
		return tokenizeLines(tail)
	}

	lead := len(tail) - len(strings.TrimLeft(tail, spaceChars))
	s := strings.TrimSpace(tail)

	var toks []ArgToken
	emit := func(t ArgTokenType, from, to int) {
		toks = append(toks, ArgToken{Type: t, Text: s[from:to], Offset: lead + from})
	}

	valStart := 0
	for i := 0; i < len(s); i++ {
		if i > 0 && !isSpace(s[i-1]) {
			continue
		}
		eq := keyEnd(s, i)
		if eq < 0 {
			continue
		}

		bStart := i
		for bStart > valStart && isSpace(s[bStart-1]) {
			bStart--
		}
		if bStart > valStart {
			emit(ArgValue, valStart, bStart)
		}
		if i > bStart {
			emit(ArgBoundary, bStart, i)
		}
		emit(ArgKey, i, eq)
		emit(ArgEquals, eq, eq+1)

		i = eq
		valStart = eq + 1
	}
	if valStart < len(s) {
		emit(ArgValue, valStart, len(s))
	}

	return toks
}

// tokenizeLines splits a multi-line argument tail into one binding per
// line, separated by BOUNDARY tokens
func tokenizeLines(tail string) []ArgToken {
	var toks []ArgToken
	emit := func(t ArgTokenType, from, to int) {
		toks = append(toks, ArgToken{Type: t, Text: tail[from:to], Offset: from})
	}

	prevEnd := -1
	for pos := 0; pos < len(tail); {
		end := len(tail)
		if i := strings.IndexAny(tail[pos:], "\r\n"); i >= 0 {
			end = pos + i
		}
		line := tail[pos:end]
		from := pos + len(line) - len(strings.TrimLeft(line, spaceChars))
		to := pos + len(strings.TrimRight(line, spaceChars))
		pos = end + 1

		if from >= to {
			continue
		}
		if prevEnd >= 0 {
			emit(ArgBoundary, prevEnd, from)
		}
		prevEnd = to

		eq := strings.IndexByte(tail[from:to], '=')
		key := ""
		if eq >= 0 {
			key = strings.TrimRight(tail[from:from+eq], spaceChars)
		}
		if key == "" || strings.ContainsAny(key, spaceChars) {
			emit(ArgValue, from, to)
			continue
		}

		eq += from
		emit(ArgKey, from, from+len(key))
		emit(ArgEquals, eq, eq+1)

		valStart := eq + 1
		for valStart < to && isSpace(tail[valStart]) {
			valStart++
		}
		if valStart < to {
			emit(ArgValue, valStart, to)
		}
	}

	return toks
}

// isMultiLine reports whether the argument tail uses the one binding per
// line form
func isMultiLine(tail string) bool {
	return strings.ContainsAny(tail, "\r\n")
}

// ParseArgs converts the argument tail of a directive into bindings. It
// returns a MalformedDirective error if there is text which is not part of
// a binding and an EmptyArguments error if there are no bindings at all.
// Stray text on a single line with no binding counts as no arguments;
// a stray line in the multi-line form is always malformed. The offsets in
// any error are relative to the tail.
func ParseArgs(tail string) (Args, error) {
	var (
		args  Args
		name  string
		open  bool
		stray *ArgToken
	)

	for _, t := range TokenizeArgs(tail) {
		switch t.Type {
		case ArgKey:
			if open {
				args.Set(name, "")
			}
			name, open = t.Text, true
		case ArgBoundary:
			if open {
				args.Set(name, "")
				open = false
			}
		case ArgValue:
			if !open {
				if stray == nil {
					t := t
					stray = &t
				}
				continue
			}
			args.Set(name, unescapeClose(strings.TrimSpace(t.Text)))
			open = false
		}
	}
	if open {
		args.Set(name, "")
	}

	if stray != nil && (args.Len() > 0 || isMultiLine(tail)) {
		return Args{}, newError(KindMalformedDirective, "", tail, stray.Offset,
			"argument text %q is not a key=value pair", stray.Text)
	}
	if args.Len() == 0 {
		return Args{}, newError(KindEmptyArguments, "", tail, 0,
			"no key=value arguments given")
	}

	return args, nil
}

// keyEnd returns the index of the '=' ending the name that starts at i or
// -1 if there is no non-empty name followed by '=' at i
func keyEnd(s string, i int) int {
	j := i
	for j < len(s) && s[j] != '=' && !isSpace(s[j]) {
		j++
	}
	if j == i || j == len(s) || s[j] != '=' {
		return -1
	}
	return j
}

const spaceChars = " \t\n\r\v\f"

func isSpace(c byte) bool {
	return strings.IndexByte(spaceChars, c) >= 0
}
