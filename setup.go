// Package openaitracing wires OpenTelemetry span export to Langfuse for the
// traceopenai middleware.
//
// The quickest path requires LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and
// LANGFUSE_SECRET_KEY in the environment:
//
//	teardown, err := openaitracing.Setup(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer teardown(ctx)
//
//	httpClient := traceopenai.Client()
//	// pass httpClient to your OpenAI client configuration
//
// Setup registers a global TracerProvider; spans created by traceopenai (or
// any other instrumentation) are batched and shipped to Langfuse's OTLP
// endpoint. Missing configuration fails fast here, before any request is
// traced.
package openaitracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/timvw/openai-tracing-go/config"
	"github.com/timvw/openai-tracing-go/langfuse"
	"github.com/timvw/openai-tracing-go/logger"
)

// Teardown flushes and shuts down the tracer provider created by Setup.
type Teardown = func(ctx context.Context) error

// Setup configures span export to Langfuse from the environment and
// registers the resulting TracerProvider globally. It returns a Teardown
// that must be called before the process exits so buffered spans are
// flushed.
//
// Configuration errors (missing Langfuse host or keys) are returned here;
// once Setup succeeds, tracing never surfaces errors to request paths.
func Setup(ctx context.Context, opts ...Option) (Teardown, error) {
	cfg := config.FromEnv()
	for _, opt := range opts {
		opt(cfg)
	}

	tp, err := NewTracerProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Option overrides configuration loaded from the environment.
type Option func(*config.Config)

// WithConfig replaces the entire environment-derived configuration.
func WithConfig(c *config.Config) Option {
	return func(cfg *config.Config) {
		*cfg = *c
	}
}

// WithSystem sets the gen_ai.system value recorded on spans.
func WithSystem(system string) Option {
	return func(cfg *config.Config) {
		cfg.System = system
	}
}

// WithDebug also exports spans to stdout, for inspecting what would be
// shipped to Langfuse.
func WithDebug() Option {
	return func(cfg *config.Config) {
		cfg.Debug = true
	}
}

// WithLogger sets the logger used during setup.
// If not provided, logging is disabled.
func WithLogger(l logger.Logger) Option {
	return func(cfg *config.Config) {
		cfg.Logger = l
	}
}

// NewTracerProvider builds a TracerProvider exporting to Langfuse per cfg,
// without registering it globally.
func NewTracerProvider(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	if err := cfg.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Discard()
	}

	exporter, err := langfuse.NewSpanExporter(ctx, cfg.LangfuseHost, cfg.LangfusePublicKey, cfg.LangfuseSecretKey)
	if err != nil {
		return nil, err
	}

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithBatcher(exporter)}
	if cfg.Debug {
		stdout, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(stdout))
	}

	log.Debug("langfuse span exporter configured",
		"host", cfg.LangfuseHost, "system", cfg.System, "debug", cfg.Debug)
	return sdktrace.NewTracerProvider(tpOpts...), nil
}
