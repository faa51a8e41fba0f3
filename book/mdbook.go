package book

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/nickwells/mdtemplate.mod/config"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// PreprocessorName is the name under which the preprocessor's table
// appears in the book configuration
const PreprocessorName = "template"

// Context is the first element of the input mdbook gives a preprocessor
type Context struct {
	Root          string         `json:"root"`
	Config        map[string]any `json:"config"`
	Renderer      string         `json:"renderer"`
	MDBookVersion string         `json:"mdbook_version"`
}

// HostSettings returns the settings from the preprocessor's table of the
// book configuration together with the book's src directory
func (c *Context) HostSettings() map[string]any {
	settings := map[string]any{}

	if pp, ok := c.Config["preprocessor"].(map[string]any); ok {
		if t, ok := pp[PreprocessorName].(map[string]any); ok {
			for k, v := range t {
				settings[k] = v
			}
		}
	}
	if b, ok := c.Config["book"].(map[string]any); ok {
		if src, ok := b["src"].(string); ok && src != "" {
			settings["src"] = src
		}
	}
	return settings
}

// DecodeInput reads the [context, book] pair mdbook writes to a
// preprocessor. The book is returned undecoded.
func DecodeInput(r io.Reader) (*Context, json.RawMessage, error) {
	var input []json.RawMessage
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, nil, fmt.Errorf("failed to decode the preprocessor input: %w", err)
	}
	if len(input) != 2 {
		return nil, nil,
			fmt.Errorf("the preprocessor input has %d elements, expected 2",
				len(input))
	}

	var c Context
	if err := json.Unmarshal(input[0], &c); err != nil {
		return nil, nil, fmt.Errorf("failed to decode the book context: %w", err)
	}
	return &c, input[1], nil
}

// RunPreprocessor reads mdbook's input from r, expands every chapter of
// the book and writes the book to w. The configuration is loaded from the
// book root given in the input, on fs, overridden by the book's own
// settings for this preprocessor.
func RunPreprocessor(ctx context.Context, fs afero.Fs, r io.Reader, w io.Writer, logger zerolog.Logger) error {
	bc, book, err := DecodeInput(r)
	if err != nil {
		return err
	}
	logger.Debug().
		Str("root", bc.Root).
		Str("renderer", bc.Renderer).
		Str("mdbookVersion", bc.MDBookVersion).
		Msg("preprocessing book")

	cfg, err := config.Load(config.LoadOptions{
		Root: bc.Root,
		FS:   fs,
		Host: bc.HostSettings(),
	})
	if err != nil {
		return err
	}

	p, err := NewProcessor(fs, cfg, logger)
	if err != nil {
		return err
	}

	src := cfg.Src
	if !filepath.IsAbs(src) {
		src = filepath.Join(bc.Root, src)
	}

	out, err := p.ExpandBook(ctx, src, book)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write the book: %w", err)
	}
	return nil
}

// ExpandBook expands the content of every chapter in the JSON form of an
// mdbook book. Each chapter's page path is its path joined to src. Draft
// chapters, which have no path, are left as they are, as are separators
// and part titles. All other fields are preserved.
func (p *Processor) ExpandBook(ctx context.Context, src string, book json.RawMessage) (json.RawMessage, error) {
	var b map[string]json.RawMessage
	if err := json.Unmarshal(book, &b); err != nil {
		return nil, fmt.Errorf("failed to decode the book: %w", err)
	}

	found := false
	for _, key := range []string{"sections", "items"} {
		raw, ok := b[key]
		if !ok {
			continue
		}
		found = true
		items, err := p.expandItems(ctx, src, raw)
		if err != nil {
			return nil, err
		}
		b[key] = items
	}
	if !found {
		return nil, errors.New("the book has neither sections nor items")
	}

	return encode(b)
}

// expandItems expands the chapters in a list of book items
func (p *Processor) expandItems(ctx context.Context, src string, raw json.RawMessage) (json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("failed to decode the book items: %w", err)
	}

	for i, item := range items {
		if !bytes.HasPrefix(bytes.TrimSpace(item), []byte("{")) {
			continue
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil {
			return nil, fmt.Errorf("failed to decode book item %d: %w", i, err)
		}
		ch, ok := obj["Chapter"]
		if !ok {
			continue
		}

		ch, err := p.expandChapter(ctx, src, ch)
		if err != nil {
			return nil, err
		}
		obj["Chapter"] = ch

		if items[i], err = encode(obj); err != nil {
			return nil, err
		}
	}

	return encode(items)
}

// expandChapter expands the content of the chapter and of its sub-items
func (p *Processor) expandChapter(ctx context.Context, src string, raw json.RawMessage) (json.RawMessage, error) {
	var ch map[string]json.RawMessage
	if err := json.Unmarshal(raw, &ch); err != nil {
		return nil, fmt.Errorf("failed to decode a chapter: %w", err)
	}

	var path *string
	if rp, ok := ch["path"]; ok {
		if err := json.Unmarshal(rp, &path); err != nil {
			return nil, fmt.Errorf("failed to decode a chapter path: %w", err)
		}
	}

	if path != nil && *path != "" {
		var content string
		if rc, ok := ch["content"]; ok {
			if err := json.Unmarshal(rc, &content); err != nil {
				return nil, fmt.Errorf("failed to decode the content of %s: %w",
					*path, err)
			}
		}

		s, err := p.ExpandPage(ctx, filepath.Join(src, filepath.FromSlash(*path)), content)
		if err != nil {
			return nil, err
		}
		if ch["content"], err = encode(s); err != nil {
			return nil, err
		}
	}

	if sub, ok := ch["sub_items"]; ok {
		items, err := p.expandItems(ctx, src, sub)
		if err != nil {
			return nil, err
		}
		ch["sub_items"] = items
	}

	return encode(ch)
}

// encode returns the JSON form of v without escaping HTML characters
func encode(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
