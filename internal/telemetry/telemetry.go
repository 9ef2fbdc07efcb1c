// Package telemetry builds the service logger. Logs go to stdout and,
// when an OTLP endpoint is configured, to an OpenTelemetry collector.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
)

// Options configures the logger.
type Options struct {
	ServiceName  string
	Environment  string // "production" selects JSON output
	Level        string // debug, info, warn, error
	OTLPEndpoint string // e.g. http://collector:4318; empty disables export
	Output       io.Writer
}

// ShutdownFunc flushes and stops log export.
type ShutdownFunc func(context.Context) error

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values are info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func NewLogger(ctx context.Context, opts Options) (*slog.Logger, ShutdownFunc, error) {
	level := ParseLevel(opts.Level)
	handlerOpts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	var local slog.Handler
	if opts.Environment == "production" {
		local = slog.NewJSONHandler(opts.Output, handlerOpts)
	} else {
		local = slog.NewTextHandler(opts.Output, handlerOpts)
	}

	noop := func(context.Context) error { return nil }
	if opts.OTLPEndpoint == "" {
		return slog.New(local), noop, nil
	}

	exporter, err := otlploghttp.New(ctx, otlploghttp.WithEndpointURL(opts.OTLPEndpoint))
	if err != nil {
		return nil, noop, fmt.Errorf("creating otlp log exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("deployment.environment", opts.Environment),
		)),
	)

	remote := otelslog.NewHandler(opts.ServiceName, otelslog.WithLoggerProvider(provider))
	logger := slog.New(&teeHandler{handlers: []slog.Handler{local, levelFilter{remote, level}}})

	shutdown := func(ctx context.Context) error {
		return errors.Join(provider.ForceFlush(ctx), provider.Shutdown(ctx))
	}
	return logger, shutdown, nil
}

// levelFilter applies the configured minimum level to a handler that
// has no level option of its own.
type levelFilter struct {
	slog.Handler
	min slog.Level
}

func (f levelFilter) Enabled(ctx context.Context, l slog.Level) bool {
	return l >= f.min && f.Handler.Enabled(ctx, l)
}

func (f levelFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return levelFilter{f.Handler.WithAttrs(attrs), f.min}
}

func (f levelFilter) WithGroup(name string) slog.Handler {
	return levelFilter{f.Handler.WithGroup(name), f.min}
}

// teeHandler sends every record to all handlers that accept its level.
type teeHandler struct {
	handlers []slog.Handler
}

func (t *teeHandler) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t.handlers {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &teeHandler{handlers: next}
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &teeHandler{handlers: next}
}
