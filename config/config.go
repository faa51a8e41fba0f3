// Package config loads the settings which control how a book is expanded.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/nickwells/filecheck.mod/filecheck"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"github.com/nickwells/mdtemplate.mod/expand"
)

// The names of the files configuration is read from and the environment
// variable prefix
const (
	BookFile  = "book.toml"
	YAMLFile  = ".mdtemplate.yaml"
	EnvPrefix = "MDTEMPLATE_"

	// Section is the table of the book file holding this preprocessor's
	// settings
	Section = "preprocessor.template"
)

// Config holds the settings for expanding a book
type Config struct {
	// Src is the directory holding the pages, relative to the book root
	Src string `koanf:"src" toml:"src"`
	// MaxDepth limits the number of nested templates
	MaxDepth int `koanf:"max-depth" toml:"max-depth"`
	// CacheTemplates, if set, reads each template file only once per run
	CacheTemplates bool `koanf:"cache-templates" toml:"cache-templates"`
	// Extensions lists the file suffixes of the pages to expand
	Extensions []string `koanf:"extensions" toml:"extensions"`
	// Renderers lists the renderers this preprocessor supports
	Renderers []string `koanf:"renderers" toml:"renderers"`
	// TemplatesDir is the directory, relative to Src, where templates are
	// kept. Files below it are not expanded as pages when a whole tree is
	// processed; templates are still found relative to the calling page.
	TemplatesDir string `koanf:"templates-dir" toml:"templates-dir"`
	// Jobs is the number of pages expanded at once; 0 means one per CPU
	Jobs int `koanf:"jobs" toml:"jobs"`
}

// Defaults returns the default settings as a map suitable for koanf
func Defaults() map[string]any {
	return map[string]any{
		"src":             "src",
		"max-depth":       expand.DfltMaxDepth,
		"cache-templates": true,
		"extensions":      []string{".md"},
		"renderers":       []string{"html"},
		"templates-dir":   "templates",
		"jobs":            0,
	}
}

// LoadOptions gives the sources of configuration beyond the defaults
type LoadOptions struct {
	// Root is the book root holding book.toml and .mdtemplate.yaml
	Root string
	// FS is the filesystem the files are read from; if nil the operating
	// system's filesystem is used
	FS afero.Fs
	// Host holds settings supplied by the host tool; they override the
	// files but not the environment
	Host map[string]any
}

// Load builds the configuration from, in increasing order of priority,
// the defaults, the [preprocessor.template] table of book.toml (and its
// book.src setting), .mdtemplate.yaml, the host settings and MDTEMPLATE_
// environment variables.
func Load(opts LoadOptions) (*Config, error) {
	fs := opts.FS
	if fs == nil {
		fs = afero.NewOsFs()
	}
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	bookPath := filepath.Join(opts.Root, BookFile)
	if b, ok, err := readFile(fs, bookPath); err != nil {
		return nil, err
	} else if ok {
		bk := koanf.New(".")
		if err := bk.Load(rawbytes.Provider(b), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", bookPath, err)
		}
		if src := bk.String("book.src"); src != "" {
			if err := k.Set("src", src); err != nil {
				return nil, err
			}
		}
		if err := k.Merge(bk.Cut(Section)); err != nil {
			return nil, fmt.Errorf("failed to merge %s: %w", bookPath, err)
		}
	}

	yamlPath := filepath.Join(opts.Root, YAMLFile)
	if b, ok, err := readFile(fs, yamlPath); err != nil {
		return nil, err
	} else if ok {
		if err := k.Load(rawbytes.Provider(b), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", yamlPath, err)
		}
	}

	if len(opts.Host) > 0 {
		if err := k.Load(confmap.Provider(opts.Host, "."), nil); err != nil {
			return nil, fmt.Errorf("failed to load host settings: %w", err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", "-")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	var cfg Config
	uc := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, uc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings for consistency
func (c *Config) Validate() error {
	if c.MaxDepth < 1 {
		return fmt.Errorf("max-depth (%d) must be >= 1", c.MaxDepth)
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs (%d) must be >= 0", c.Jobs)
	}
	if len(c.Extensions) == 0 {
		return errors.New("at least one page extension must be given")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("page extension %q must start with '.'", ext)
		}
	}
	return nil
}

// SrcDir returns the source directory for the book at root, checking that
// it exists on fs and is a directory
func (c *Config) SrcDir(fs afero.Fs, root string) (string, error) {
	dir := c.Src
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}

	if _, ok := fs.(*afero.OsFs); ok {
		if err := filecheck.DirExists().StatusCheck(dir); err != nil {
			return "", err
		}
		return dir, nil
	}

	isDir, err := afero.IsDir(fs, dir)
	if err != nil {
		return "", err
	}
	if !isDir {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	return dir, nil
}

// IsPage reports whether the file name has one of the page extensions
func (c *Config) IsPage(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range c.Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Supports reports whether the renderer is one of those configured
func (c *Config) Supports(renderer string) bool {
	for _, r := range c.Renderers {
		if r == renderer {
			return true
		}
	}
	return false
}

// Dump returns the configuration as a book.toml table
func (c *Config) Dump() (string, error) {
	var doc struct {
		Preprocessor struct {
			Template Config `toml:"template"`
		} `toml:"preprocessor"`
	}
	doc.Preprocessor.Template = *c

	b, err := gotoml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// readFile returns the contents of the named file and true, or false if
// there is no such file
func readFile(fs afero.Fs, path string) ([]byte, bool, error) {
	info, err := fs.Stat(path)
	if err != nil || info.IsDir() {
		return nil, false, nil
	}
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return b, true, nil
}
