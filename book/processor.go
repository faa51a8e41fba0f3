package book

import (
	"context"
	"fmt"

	"github.com/nickwells/mdtemplate.mod/config"
	"github.com/nickwells/mdtemplate.mod/expand"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/nickwells/mdtemplate.mod/book"

var tracer = otel.Tracer(instrumentationName)

// Processor expands the pages of a book. Templates are read from the
// filesystem it is given, so the same Processor serves both a real book
// on disk and an in-memory one.
type Processor struct {
	fs     afero.Fs
	cfg    *config.Config
	exp    *expand.Expander
	logger zerolog.Logger

	pages metric.Int64Counter
}

// NewProcessor creates a Processor for the given configuration
func NewProcessor(fs afero.Fs, cfg *config.Config, logger zerolog.Logger) (*Processor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exp, err := expand.New(
		expand.TemplateReader(expand.NewFSReader(fs, cfg.CacheTemplates)),
		expand.MaxDepth(cfg.MaxDepth),
		expand.Logger(logger),
	)
	if err != nil {
		return nil, err
	}

	pages, err := otel.Meter(instrumentationName).Int64Counter(
		"mdtemplate.pages",
		metric.WithDescription("Number of pages expanded"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create the page counter: %w", err)
	}

	return &Processor{
		fs:     fs,
		cfg:    cfg,
		exp:    exp,
		logger: logger,
		pages:  pages,
	}, nil
}

// Config returns the configuration the Processor was created with
func (p *Processor) Config() *config.Config {
	return p.cfg
}

// ExpandPage expands the template directives in the text of the page at
// path. Any error is wrapped with the page path and can be examined with
// expand.KindOf.
func (p *Processor) ExpandPage(ctx context.Context, path, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "mdtemplate.page",
		trace.WithAttributes(attribute.String("page.path", path)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	defer span.End()

	s, err := p.exp.Expand(path, text)

	p.pages.Add(ctx, 1,
		metric.WithAttributes(attribute.Bool("failed", err != nil)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Debug().Err(err).Str("page", path).Msg("page failed")
		return "", fmt.Errorf("page %s: %w", path, err)
	}
	span.SetStatus(codes.Ok, "")
	return s, nil
}
