package book

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Summary reports what ExpandTree did
type Summary struct {
	// Pages is the number of pages expanded
	Pages int
	// Changed is the number of pages whose text was altered by expansion
	Changed int
}

// Pages returns the pages below src in lexical order. Files below the
// templates directory are not pages.
func (p *Processor) Pages(src string) ([]string, error) {
	tmplDir := filepath.Join(src, p.cfg.TemplatesDir)
	var pages []string

	err := afero.Walk(p.fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if p.cfg.TemplatesDir != "" && path == tmplDir {
				return filepath.SkipDir
			}
			return nil
		}
		if p.cfg.IsPage(path) {
			pages = append(pages, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", src, err)
	}

	sort.Strings(pages)
	return pages, nil
}

// ExpandTree expands every page below src. If out is not empty each
// expanded page is written below out at the same relative path as in src;
// otherwise the pages are only checked. Pages are expanded concurrently,
// up to the configured number of jobs, and the first failure stops the
// run.
func (p *Processor) ExpandTree(ctx context.Context, src, out string) (Summary, error) {
	var sum Summary

	pages, err := p.Pages(src)
	if err != nil {
		return sum, err
	}

	jobs := p.cfg.Jobs
	if jobs == 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	var changed atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for _, page := range pages {
		g.Go(func() error {
			b, err := afero.ReadFile(p.fs, page)
			if err != nil {
				return fmt.Errorf("failed to read page %s: %w", page, err)
			}

			s, err := p.ExpandPage(ctx, page, string(b))
			if err != nil {
				return err
			}
			if s != string(b) {
				changed.Add(1)
			}

			if out == "" {
				return nil
			}
			return p.writePage(src, out, page, s)
		})
	}

	if err := g.Wait(); err != nil {
		return sum, err
	}

	sum.Pages = len(pages)
	sum.Changed = int(changed.Load())
	p.logger.Info().
		Int("pages", sum.Pages).
		Int("changed", sum.Changed).
		Str("src", src).
		Msg("tree expanded")
	return sum, nil
}

// writePage writes the expanded text of the page to the matching path
// below out
func (p *Processor) writePage(src, out, page, text string) error {
	rel, err := filepath.Rel(src, page)
	if err != nil {
		return err
	}
	dst := filepath.Join(out, rel)

	if err := p.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create the directory for %s: %w", dst, err)
	}
	if err := afero.WriteFile(p.fs, dst, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dst, err)
	}
	return nil
}
