package expand

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Expander replaces the template directives in a page with the rendered
// templates they name.
//
// You should create a new Expander with New, giving any options. A single
// Expander can be used for any number of pages, including concurrently
// from several goroutines; no state is kept between calls to Expand apart
// from whatever the Reader caches.
type Expander struct {
	reader   Reader
	maxDepth int
	logger   zerolog.Logger
}

// OptFunc is the type of an option to New
type OptFunc func(e *Expander) error

// New creates a new Expander. By default templates are read from the
// operating system's filesystem, at most DfltMaxDepth templates may be
// nested and nothing is logged.
func New(opts ...OptFunc) (*Expander, error) {
	e := &Expander{
		reader:   NewOSReader(),
		maxDepth: DfltMaxDepth,
		logger:   zerolog.Nop(),
	}

	for _, o := range opts {
		if err := o(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// TemplateReader returns an OptFunc that sets the source of template
// contents
func TemplateReader(r Reader) OptFunc {
	return func(e *Expander) error {
		if r == nil {
			return errors.New("the template reader must not be nil")
		}
		e.reader = r
		return nil
	}
}

// MaxDepth returns an OptFunc that sets the limit on the number of nested
// templates. It must be at least 1.
func MaxDepth(n int) OptFunc {
	return func(e *Expander) error {
		if n < 1 {
			return fmt.Errorf("the maximum template depth (%d) must be >= 1", n)
		}
		e.maxDepth = n
		return nil
	}
}

// Logger returns an OptFunc that sets the logger used to report progress
func Logger(l zerolog.Logger) OptFunc {
	return func(e *Expander) error {
		e.logger = l
		return nil
	}
}

// origin describes the file a piece of text came from: the page itself
// or a rendered template. The stack holds the templates being rendered
// when the text was produced, ending with the file itself.
type origin struct {
	file  string
	text  string
	stack *Stack
}

// segment is a piece of the page text. Offset is the position of the
// segment within its origin's text.
type segment struct {
	text   string
	offset int
	from   *origin
}

// Expand returns the page text with every template directive replaced.
// Expansion runs in passes: each pass replaces all the directives present
// at its start, and directives produced by the templates rendered in a
// pass are replaced by the next one. Expansion stops when a pass finds no
// directives. Escaped directives lose their escape marker at the end.
//
// The first error stops the expansion; no partial result is returned.
func (e *Expander) Expand(pagePath, text string) (string, error) {
	pagePath = filepath.Clean(pagePath)
	root := &origin{
		file:  pagePath,
		text:  text,
		stack: NewStack(e.maxDepth, pagePath),
	}
	segs := []segment{{text: text, from: root}}

	log := e.logger.With().Str("page", pagePath).Logger()

	for pass := 1; ; pass++ {
		next, calls, err := e.pass(segs)
		if err != nil {
			log.Debug().Err(err).Int("pass", pass).Msg("expansion failed")
			return "", err
		}
		log.Debug().Int("pass", pass).Int("calls", calls).Msg("pass complete")
		if calls == 0 {
			break
		}
		if pass > e.maxDepth {
			return "", &Error{
				Kind:    KindDepthExceeded,
				File:    pagePath,
				Message: fmt.Sprintf("still expanding after %d passes", pass),
			}
		}
		segs = next
	}

	var b strings.Builder
	for _, s := range segs {
		b.WriteString(unescapeDirectives(s.text))
	}
	return b.String(), nil
}

// pass replaces every call site in the segments, returning the new
// segments and the number of call sites replaced. The segments passed in
// are not changed.
func (e *Expander) pass(segs []segment) ([]segment, int, error) {
	next := make([]segment, 0, len(segs))
	calls := 0

	for _, s := range segs {
		ds, err := ScanDirectives(s.from.file, s.text)
		if err != nil {
			return nil, 0, s.locate(err)
		}

		last := 0
		for _, d := range ds {
			if d.Escaped {
				continue
			}
			cs, err := ParseCall(s.from.file, s.text, d)
			if err != nil {
				return nil, 0, s.locate(err)
			}

			out, err := e.render(s, cs)
			if err != nil {
				return nil, 0, err
			}
			calls++

			next = append(next,
				s.slice(last, cs.Start),
				segment{text: out.text, from: out})
			last = cs.End
		}
		next = append(next, s.slice(last, len(s.text)))
	}

	return next, calls, nil
}

// render reads the template named by the call site and substitutes the
// call's arguments into it. The template is on the expansion stack while
// it is being rendered.
func (e *Expander) render(s segment, cs CallSite) (*origin, error) {
	path := ResolvePath(s.from.file, cs.Path)

	stack := s.from.stack.Clone()
	if err := stack.Push(path); err != nil {
		var xe *Error
		if errors.As(err, &xe) {
			xe.place(s.from.file, s.from.text, s.offset+cs.Start)
		}
		return nil, err
	}
	defer stack.Pop()

	e.logger.Debug().
		Str("caller", s.from.file).
		Str("template", path).
		Int("depth", stack.Depth()).
		Int("args", cs.Args.Len()).
		Msg("rendering template")

	body, err := e.reader.ReadTemplate(path)
	if err != nil {
		xe := newError(KindTemplateNotFound, s.from.file, s.from.text,
			s.offset+cs.Start, "could not read template %s (%s)", cs.Path, path)
		xe.Wrapped = err
		return nil, xe
	}

	out, err := Substitute(path, body, cs.Args)
	if err != nil {
		return nil, err
	}

	return &origin{
		file:  path,
		text:  out,
		stack: stack.Clone(),
	}, nil
}

// slice returns the part of the segment between from and to
func (s segment) slice(from, to int) segment {
	return segment{
		text:   s.text[from:to],
		offset: s.offset + from,
		from:   s.from,
	}
}

// locate moves a parse error found in the segment to its position in the
// origin's text
func (s segment) locate(err error) error {
	var xe *Error
	if errors.As(err, &xe) {
		xe.relocate(s.from.file, s.from.text, s.offset)
	}
	return err
}

// unescapeDirectives removes the escape marker from any escaped
// directives in text
func unescapeDirectives(text string) string {
	ds, err := ScanDirectives("", text)
	if err != nil || len(ds) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, d := range ds {
		if !d.Escaped {
			continue
		}
		b.WriteString(text[last : d.Start-len(EscapeMarker)])
		last = d.Start
	}
	b.WriteString(text[last:])
	return b.String()
}
