package expand

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nickwells/location.mod/location"
)

// Kind identifies the class of an expansion failure. Kinds are stable and
// can be used in tests and by the host to decide how to report a failure.
type Kind string

// The kinds of failure the expander can report
const (
	KindUnknown               Kind = "UNKNOWN"
	KindMalformedDirective    Kind = "MALFORMED_DIRECTIVE"
	KindEmptyArguments        Kind = "EMPTY_ARGUMENTS"
	KindTemplateNotFound      Kind = "TEMPLATE_NOT_FOUND"
	KindCycleDetected         Kind = "CYCLE_DETECTED"
	KindDepthExceeded         Kind = "DEPTH_EXCEEDED"
	KindUnresolvedPlaceholder Kind = "UNRESOLVED_PLACEHOLDER"
)

// Sentinel errors, one per Kind. They match any *Error of the same Kind
// when used with errors.Is
var (
	ErrMalformedDirective    = &Error{Kind: KindMalformedDirective}
	ErrEmptyArguments        = &Error{Kind: KindEmptyArguments}
	ErrTemplateNotFound      = &Error{Kind: KindTemplateNotFound}
	ErrCycleDetected         = &Error{Kind: KindCycleDetected}
	ErrDepthExceeded         = &Error{Kind: KindDepthExceeded}
	ErrUnresolvedPlaceholder = &Error{Kind: KindUnresolvedPlaceholder}
)

// Error is the single error type returned by the expander. It records the
// file being processed and, where known, the position within that file.
// Line and Column are 1-based; a zero Line means the position is unknown.
type Error struct {
	Kind    Kind
	File    string
	Line    int
	Column  int
	Offset  int
	Message string
	// Stack holds the expansion stack for cycle and depth failures
	Stack   []string
	Wrapped error

	loc *location.L
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.File != "" {
		b.WriteString(" at ")
		b.WriteString(e.Location())
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, ": %v", e.Wrapped)
	}

	return b.String()
}

// Location returns the file and position of the error in the form
// file:line or file:line:column. Only the file name is given if the line
// is not known.
func (e *Error) Location() string {
	if e.Line <= 0 {
		return e.File
	}

	var s string
	if e.loc != nil {
		s = e.loc.String()
	} else {
		s = fmt.Sprintf("%s:%d", e.File, e.Line)
	}
	if e.Column > 0 {
		s += fmt.Sprintf(":%d", e.Column)
	}
	return s
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// Is reports whether target is an *Error of the same Kind
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// KindOf returns the Kind of the first *Error in err's chain or KindUnknown
// if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// newError returns an *Error positioned at offset within text, the
// contents of file
func newError(k Kind, file, text string, offset int, format string, args ...any) *Error {
	e := &Error{
		Kind:    k,
		Message: fmt.Sprintf(format, args...),
	}
	e.place(file, text, offset)
	return e
}

// relocate moves the error by base bytes into text, the contents of file
func (e *Error) relocate(file, text string, base int) {
	e.place(file, text, e.Offset+base)
}

// place sets the file and offset of the error and derives the line and
// column from text. The location is advanced a line at a time as the
// text is scanned.
func (e *Error) place(file, text string, offset int) {
	e.File, e.Offset = file, offset
	e.Line, e.Column, e.loc = 0, 0, nil
	if offset < 0 {
		return
	}
	if offset > len(text) {
		offset = len(text)
	}

	loc := location.New(file)
	line, lineStart := 0, 0
	for {
		loc.Incr()
		line++
		i := strings.IndexByte(text[lineStart:offset], '\n')
		if i < 0 {
			break
		}
		lineStart += i + 1
	}

	e.Line, e.Column, e.loc = line, offset-lineStart+1, loc
}

// position converts a byte offset into a 1-based line and column
func position(text string, offset int) (line, col int) {
	var e Error
	e.place("", text, offset)
	return e.Line, e.Column
}
