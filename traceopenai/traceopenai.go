// Package traceopenai provides OpenTelemetry tracing middleware for
// OpenAI-compatible API clients.
//
// Each request is classified by its path (chat, completions, embeddings,
// image generation, audio transcription/translation), wrapped in a span
// named "{operation} {system}", and tagged with GenAI semantic-convention
// attributes extracted from the request and response payloads plus any
// user-supplied trace context (see the trace package).
//
// The middleware plugs into github.com/openai/openai-go directly:
//
//	client := openai.NewClient(
//		option.WithMiddleware(traceopenai.Middleware),
//	)
//
// Clients that take an *http.Client, such as
// github.com/sashabaranov/go-openai, use the RoundTripper wrappers:
//
//	config := openai.DefaultConfig(apiKey)
//	config.HTTPClient = traceopenai.Client()
//	client := openai.NewClientWithConfig(config)
//
// For tests or custom configurations, provide a TracerProvider:
//
//	httpClient := traceopenai.Client(traceopenai.WithTracerProvider(tp))
//
// Tracing is best-effort: malformed payloads and unrecognized paths never
// fail a request, and transport errors are recorded on the span and then
// returned to the caller unchanged.
package traceopenai

import (
	"net/http"

	"go.opentelemetry.io/otel/trace"

	"github.com/timvw/openai-tracing-go/config"
	"github.com/timvw/openai-tracing-go/logger"
	tracectx "github.com/timvw/openai-tracing-go/trace"
)

// clientConfig holds configuration for the middleware and client wrappers.
type clientConfig struct {
	tracerProvider trace.TracerProvider
	logger         logger.Logger
	system         string
	traceName      string
	store          *tracectx.Store
}

// Option configures the middleware and client wrappers.
type Option func(*clientConfig)

// WithTracerProvider sets a custom TracerProvider.
// If not provided, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *clientConfig) {
		c.tracerProvider = tp
	}
}

// WithLogger sets a custom logger for the middleware.
// If not provided, logging is disabled.
func WithLogger(log logger.Logger) Option {
	return func(c *clientConfig) {
		c.logger = log
	}
}

// WithSystem sets the gen_ai.system attribute value. It identifies which
// provider configuration produced the traced requests: config.SystemOpenAI
// (the default) or config.SystemAzure.
func WithSystem(system string) Option {
	return func(c *clientConfig) {
		c.system = system
	}
}

// WithTraceName sets the name of root spans created when no parent span is
// active in the calling context. Defaults to config.DefaultTraceName.
func WithTraceName(name string) Option {
	return func(c *clientConfig) {
		c.traceName = name
	}
}

// WithContextStore sets the trace context store read at span-close time.
// If not provided, the process-wide default store is used. A per-request
// context set via trace.WithContext always takes precedence.
func WithContextStore(store *tracectx.Store) Option {
	return func(c *clientConfig) {
		c.store = store
	}
}

func newConfig(opts ...Option) *clientConfig {
	// tracerProvider stays nil unless set explicitly; the middleware falls
	// back to the global provider per request, so a client wrapped before
	// otel.SetTracerProvider still traces correctly.
	cfg := &clientConfig{
		logger:    logger.Discard(),
		system:    config.SystemOpenAI,
		traceName: config.DefaultTraceName,
		store:     tracectx.DefaultStore(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Client returns a new http.Client configured with tracing middleware.
// This is equivalent to WrapClient(nil), which wraps the default HTTP
// transport.
//
// Example:
//
//	config := openai.DefaultConfig(apiKey)
//	config.HTTPClient = traceopenai.Client()
//	client := openai.NewClientWithConfig(config)
func Client(opts ...Option) *http.Client {
	return WrapClient(nil, opts...)
}

// WrapClient wraps an existing http.Client with tracing middleware.
// If client is nil, a new client with the default transport is created.
//
// Example:
//
//	existingClient := &http.Client{Timeout: 30 * time.Second}
//	config := openai.DefaultConfig(apiKey)
//	config.HTTPClient = traceopenai.WrapClient(existingClient)
//	client := openai.NewClientWithConfig(config)
func WrapClient(client *http.Client, opts ...Option) *http.Client {
	cfg := newConfig(opts...)

	if client == nil {
		client = &http.Client{}
	}

	// Get the existing transport or use default
	transport := client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	// Wrap with our tracing RoundTripper
	client.Transport = newRoundTripper(transport, cfg)
	return client
}

// roundTripper wraps an http.RoundTripper with OpenTelemetry tracing.
type roundTripper struct {
	base http.RoundTripper
	mw   *middleware
}

// newRoundTripper creates a new tracing RoundTripper that wraps the base
// transport.
func newRoundTripper(base http.RoundTripper, cfg *clientConfig) http.RoundTripper {
	return &roundTripper{base: base, mw: newMiddleware(cfg)}
}

// RoundTrip implements http.RoundTripper by intercepting requests and
// responses.
func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt.mw.intercept(req, rt.base.RoundTrip)
}
