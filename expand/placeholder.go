package expand

import (
	"strings"
)

// The markers bracketing a placeholder in a template and the character
// introducing its name
const (
	PlaceholderOpen  = "[["
	PlaceholderClose = "]]"
	PlaceholderName  = "#"
)

// Placeholder is a single [[#name]] or [[#name default]] occurrence in a
// template body. Start and End give the byte span [Start, End) of the
// placeholder, excluding any escape marker.
type Placeholder struct {
	Start      int
	End        int
	Name       string
	Default    string
	HasDefault bool
	Escaped    bool
}

// ScanPlaceholders finds the placeholders in body, in order. A placeholder
// must open and close on the same line; whitespace around the name and the
// default is ignored. Anything that does not parse as a placeholder, such
// as "[[]]", "[[#]]" or an unterminated "[[#name", is left alone.
func ScanPlaceholders(body string) []Placeholder {
	var ps []Placeholder

	for pos := 0; pos < len(body); {
		i := strings.Index(body[pos:], PlaceholderOpen)
		if i < 0 {
			break
		}
		start := pos + i

		p, ok := parsePlaceholder(body, start)
		if !ok {
			pos = start + 1
			continue
		}
		ps = append(ps, p)
		pos = p.End
	}

	return ps
}

// parsePlaceholder parses the placeholder opening at start
func parsePlaceholder(body string, start int) (Placeholder, bool) {
	from := start + len(PlaceholderOpen)
	line := body[from:]
	if nl := strings.IndexByte(line, '\n'); nl >= 0 {
		line = line[:nl]
	}
	end := strings.Index(line, PlaceholderClose)
	if end < 0 {
		return Placeholder{}, false
	}

	inner := strings.TrimSpace(line[:end])
	if !strings.HasPrefix(inner, PlaceholderName) {
		return Placeholder{}, false
	}
	inner = inner[len(PlaceholderName):]
	if inner == "" || isSpace(inner[0]) {
		return Placeholder{}, false
	}

	p := Placeholder{
		Start:   start,
		End:     from + end + len(PlaceholderClose),
		Name:    inner,
		Escaped: start > 0 && body[start-1] == EscapeMarker[0],
	}
	if i := strings.IndexAny(inner, spaceChars); i >= 0 {
		p.Name = inner[:i]
		p.Default = strings.TrimSpace(inner[i:])
		p.HasDefault = p.Default != ""
	}

	return p, true
}

// Substitute replaces every placeholder in the template body with the
// value bound to its name or, if the name is not bound, with its default.
// A placeholder with neither is an UnresolvedPlaceholder error. An escaped
// placeholder loses its escape marker and is otherwise copied unchanged.
// Substituted values are not themselves searched for placeholders.
func Substitute(file, body string, args Args) (string, error) {
	var b strings.Builder
	b.Grow(len(body))

	last := 0
	for _, p := range ScanPlaceholders(body) {
		if p.Escaped {
			b.WriteString(body[last : p.Start-len(EscapeMarker)])
			b.WriteString(body[p.Start:p.End])
			last = p.End
			continue
		}

		b.WriteString(body[last:p.Start])
		switch v, ok := args.Lookup(p.Name); {
		case ok:
			b.WriteString(v)
		case p.HasDefault:
			b.WriteString(p.Default)
		default:
			return "", newError(KindUnresolvedPlaceholder, file, body, p.Start,
				"placeholder %q has no value and no default", p.Name)
		}
		last = p.End
	}
	b.WriteString(body[last:])

	return b.String(), nil
}
