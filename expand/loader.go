package expand

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// DfltMaxDepth is the default limit on the number of templates that can
// be rendering at once for a single page
const DfltMaxDepth = 10

// Reader supplies the contents of template files
type Reader interface {
	ReadTemplate(path string) (string, error)
}

// FSReader reads templates from an afero filesystem. If caching is
// enabled each file is read at most once; the cache is safe for use by
// expanders running concurrently.
type FSReader struct {
	fs    afero.Fs
	cache bool

	mu       sync.RWMutex
	contents map[string]string
}

// NewFSReader returns a Reader for the given filesystem
func NewFSReader(fs afero.Fs, cache bool) *FSReader {
	return &FSReader{
		fs:       fs,
		cache:    cache,
		contents: make(map[string]string),
	}
}

// NewOSReader returns an uncached Reader for the operating system's
// filesystem
func NewOSReader() *FSReader {
	return NewFSReader(afero.NewOsFs(), false)
}

// ReadTemplate returns the contents of the named file
func (r *FSReader) ReadTemplate(path string) (string, error) {
	if r.cache {
		r.mu.RLock()
		s, ok := r.contents[path]
		r.mu.RUnlock()
		if ok {
			return s, nil
		}
	}

	b, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", err
	}
	s := string(b)

	if r.cache {
		r.mu.Lock()
		r.contents[path] = s
		r.mu.Unlock()
	}
	return s, nil
}

// ResolvePath returns the path of the template named by a directive in
// the caller file. The template path is taken relative to the directory
// holding the caller.
func ResolvePath(caller, tmplPath string) string {
	return filepath.Join(filepath.Dir(caller), filepath.FromSlash(tmplPath))
}

// Stack records the templates currently being rendered for one page. The
// bottom entries, given to NewStack, are the page itself and do not count
// towards the depth.
type Stack struct {
	paths    []string
	base     int
	maxDepth int
}

// NewStack returns a Stack holding the root paths and allowing at most
// maxDepth further entries
func NewStack(maxDepth int, root ...string) *Stack {
	return &Stack{
		paths:    append([]string(nil), root...),
		base:     len(root),
		maxDepth: maxDepth,
	}
}

// Push adds path to the top of the stack. It fails with a CycleDetected
// error if path is already on the stack and with a DepthExceeded error if
// the stack is full. Every successful Push must be matched by a Pop.
func (s *Stack) Push(path string) error {
	if s.Contains(path) {
		chain := append(s.Paths(), path)
		return &Error{
			Kind:    KindCycleDetected,
			File:    path,
			Message: "template includes itself: " + strings.Join(chain, " -> "),
			Stack:   chain,
		}
	}
	if s.Depth() >= s.maxDepth {
		chain := append(s.Paths(), path)
		return &Error{
			Kind: KindDepthExceeded,
			File: path,
			Message: fmt.Sprintf("more than %d nested templates: %s",
				s.maxDepth, strings.Join(chain, " -> ")),
			Stack: chain,
		}
	}

	s.paths = append(s.paths, path)
	return nil
}

// Pop removes the top entry. Popping the root entries is not allowed and
// has no effect.
func (s *Stack) Pop() {
	if len(s.paths) > s.base {
		s.paths = s.paths[:len(s.paths)-1]
	}
}

// Contains reports whether path is on the stack
func (s *Stack) Contains(path string) bool {
	for _, p := range s.paths {
		if p == path {
			return true
		}
	}
	return false
}

// Depth returns the number of entries above the root
func (s *Stack) Depth() int {
	return len(s.paths) - s.base
}

// Paths returns a copy of the stack contents, bottom first
func (s *Stack) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Clone returns an independent copy of the stack
func (s *Stack) Clone() *Stack {
	return &Stack{
		paths:    s.Paths(),
		base:     s.base,
		maxDepth: s.maxDepth,
	}
}
