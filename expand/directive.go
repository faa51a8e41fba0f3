package expand

import (
	"path/filepath"
	"strings"
	"unicode"
)

// DirectiveName is the name following the '#' in a template directive
const DirectiveName = "template"

// The markers bracketing a directive. The escape marker, placed
// immediately before the open marker, stops the directive being expanded.
const (
	OpenMarker   = "{{"
	CloseMarker  = "}}"
	EscapeMarker = `\`
)

// Directive is a single {{#template ...}} occurrence. Start and End give
// the byte span [Start, End) of the whole directive in the scanned text,
// excluding any escape marker. Body is the text between the directive name
// and the close marker; BodyOffset is its offset in the scanned text.
type Directive struct {
	Start      int
	End        int
	Escaped    bool
	Body       string
	BodyOffset int
}

// CallSite is a parsed, unescaped directive
type CallSite struct {
	Start int
	End   int
	// Path is the template path exactly as written, relative to the
	// directory of the file holding the directive
	Path string
	Tail string
	Args Args
}

// ScanDirectives finds every template directive in text, in order. A
// directive starts at the open marker, optionally followed by whitespace,
// then '#template' and either whitespace or the close marker. It ends at
// the first close marker not preceded by the escape marker. Other
// '{{#...}}' forms are ignored. An unescaped directive with no close
// marker, or with another directive opening before its close marker, is
// reported as a MalformedDirective error; an unterminated escaped
// directive is left as plain text.
func ScanDirectives(file, text string) ([]Directive, error) {
	var ds []Directive

	for pos := 0; pos < len(text); {
		i := strings.Index(text[pos:], OpenMarker)
		if i < 0 {
			break
		}
		start := pos + i

		bodyStart, ok := directiveOpen(text, start)
		if !ok {
			pos = start + len(OpenMarker)
			continue
		}
		escaped := start > 0 && text[start-1] == EscapeMarker[0]

		closeAt := findClose(text, bodyStart)
		if closeAt < 0 || nextOpen(text, bodyStart, closeAt) >= 0 {
			if escaped {
				pos = bodyStart
				continue
			}
			return nil, newError(KindMalformedDirective, file, text, start,
				"unterminated {{#%s directive: no closing %q",
				DirectiveName, CloseMarker)
		}

		ds = append(ds, Directive{
			Start:      start,
			End:        closeAt + len(CloseMarker),
			Escaped:    escaped,
			Body:       text[bodyStart:closeAt],
			BodyOffset: bodyStart,
		})
		pos = closeAt + len(CloseMarker)
	}

	return ds, nil
}

// ParseCall splits a directive into the template path and its arguments.
// The path is the first whitespace-delimited word of the body, the rest is
// the argument tail. A directive with no arguments is rejected with an
// EmptyArguments error; plain inclusion must be used instead.
func ParseCall(file, text string, d Directive) (CallSite, error) {
	body := d.Body
	lead := len(body) - len(strings.TrimLeft(body, spaceChars))
	rest := body[lead:]
	pathAt := d.BodyOffset + lead

	if rest == "" {
		return CallSite{}, newError(KindMalformedDirective, file, text, d.Start,
			"missing template path")
	}

	path := rest
	tail := ""
	if i := strings.IndexAny(rest, spaceChars); i >= 0 {
		path, tail = rest[:i], rest[i:]
	}

	if err := checkPath(path); err != "" {
		return CallSite{}, newError(KindMalformedDirective, file, text, pathAt,
			"%s", err)
	}

	if strings.TrimSpace(tail) == "" {
		return CallSite{}, newError(KindEmptyArguments, file, text, d.Start,
			"{{#%s %s}} has no arguments: use {{#include %s}} for plain inclusion",
			DirectiveName, path, path)
	}

	args, err := ParseArgs(tail)
	if err != nil {
		e := err.(*Error)
		e.relocate(file, text, pathAt+len(path))
		return CallSite{}, e
	}

	return CallSite{
		Start: d.Start,
		End:   d.End,
		Path:  path,
		Tail:  tail,
		Args:  args,
	}, nil
}

// checkPath returns a description of the problem with the template path
// or the empty string if the path is acceptable
func checkPath(path string) string {
	if strings.ContainsRune(path, '=') {
		return "missing template path: " + quote(path) + " is an argument"
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return "template path " + quote(path) + " must be relative"
	}
	for _, r := range path {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			return "template path " + quote(path) + " contains illegal characters"
		}
	}
	return ""
}

// directiveOpen reports whether a template directive opens at start and,
// if so, returns the offset of its body
func directiveOpen(text string, start int) (int, bool) {
	j := start + len(OpenMarker)
	for j < len(text) && isSpace(text[j]) {
		j++
	}
	name := "#" + DirectiveName
	if !strings.HasPrefix(text[j:], name) {
		return 0, false
	}
	j += len(name)
	if j < len(text) && !isSpace(text[j]) &&
		!strings.HasPrefix(text[j:], CloseMarker) {
		return 0, false
	}
	return j, true
}

// findClose returns the offset of the first unescaped close marker at or
// after from, or -1
func findClose(text string, from int) int {
	for from < len(text) {
		i := strings.Index(text[from:], CloseMarker)
		if i < 0 {
			return -1
		}
		at := from + i
		if at > 0 && text[at-1] == EscapeMarker[0] {
			from = at + len(CloseMarker)
			continue
		}
		return at
	}
	return -1
}

// nextOpen returns the offset of the first directive opening in
// text[from:to] or -1
func nextOpen(text string, from, to int) int {
	for from < to {
		i := strings.Index(text[from:to], OpenMarker)
		if i < 0 {
			return -1
		}
		if _, ok := directiveOpen(text, from+i); ok {
			return from + i
		}
		from += i + len(OpenMarker)
	}
	return -1
}

// unescapeClose replaces escaped close markers with the plain marker
func unescapeClose(s string) string {
	return strings.ReplaceAll(s, EscapeMarker+CloseMarker, CloseMarker)
}

func quote(s string) string {
	return `"` + s + `"`
}
