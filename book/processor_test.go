package book

import (
	"context"
	"testing"

	"github.com/nickwells/mdtemplate.mod/config"
	"github.com/nickwells/mdtemplate.mod/expand"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Src:            "src",
		MaxDepth:       expand.DfltMaxDepth,
		CacheTemplates: true,
		Extensions:     []string{".md"},
		Renderers:      []string{"html"},
		TemplatesDir:   "templates",
		Jobs:           2,
	}
}

// testBook returns an in-memory book below /book
func testBook(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/book/src/intro.md":            "# Intro\n{{#template templates/footer.md path=img}}\n",
		"/book/src/part/chapter.md":     "{{#template ../templates/footer.md path=../img authors=Hazel}}",
		"/book/src/part/plain.md":       "No templates here\n",
		"/book/src/img/ferris.png":      "not a page",
		"/book/src/templates/footer.md": "Written by [[#authors Anonymous]] <[[#path]]>",
		"/book/src/templates/loop.md":   "{{#template loop.md n=1}}",
		"/book/src/templates/readme.md": "{{#template missing.md a=1}}",
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func newTestProcessor(t *testing.T, fs afero.Fs) *Processor {
	t.Helper()
	p, err := NewProcessor(fs, testConfig(), zerolog.Nop())
	require.NoError(t, err)
	return p
}

func TestNewProcessor_Invalid(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDepth = 0
	_, err := NewProcessor(afero.NewMemMapFs(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestExpandPage(t *testing.T) {
	p := newTestProcessor(t, testBook(t))

	s, err := p.ExpandPage(context.Background(), "/book/src/intro.md",
		"{{#template templates/footer.md path=img}}")
	require.NoError(t, err)
	assert.Equal(t, "Written by Anonymous <img>", s)

	_, err = p.ExpandPage(context.Background(), "/book/src/intro.md",
		"{{#template templates/loop.md n=0}}")
	require.Error(t, err)
	assert.ErrorIs(t, err, expand.ErrCycleDetected)
	assert.Contains(t, err.Error(), "page /book/src/intro.md: ")
}

func TestExpandPage_Cancelled(t *testing.T) {
	p := newTestProcessor(t, testBook(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ExpandPage(ctx, "/book/src/intro.md", "text")
	assert.ErrorIs(t, err, context.Canceled)
}
