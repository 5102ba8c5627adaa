package traceopenai

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	tracectx "github.com/timvw/openai-tracing-go/trace"
)

const tracerName = "github.com/timvw/openai-tracing-go/traceopenai"

// NextMiddleware represents the next middleware to run in the client
// middleware chain. It matches the middleware shape of
// github.com/openai/openai-go's option.WithMiddleware.
type NextMiddleware = func(req *http.Request) (*http.Response, error)

// MiddlewareFunc is an around-interceptor for HTTP requests.
type MiddlewareFunc = func(req *http.Request, next NextMiddleware) (*http.Response, error)

// Middleware adds OpenTelemetry tracing to OpenAI client requests using the
// global TracerProvider and default options. Ensure OpenTelemetry is
// configured before using it.
func Middleware(req *http.Request, next NextMiddleware) (*http.Response, error) {
	return NewMiddleware()(req, next)
}

// NewMiddleware returns a MiddlewareFunc configured with the given options.
func NewMiddleware(opts ...Option) MiddlewareFunc {
	m := newMiddleware(newConfig(opts...))
	return m.intercept
}

// middleware carries per-client tracing configuration. The per-request span
// state lives entirely on the request's call path; middleware itself is
// safe for concurrent use.
type middleware struct {
	cfg *clientConfig
}

func newMiddleware(cfg *clientConfig) *middleware {
	return &middleware{cfg: cfg}
}

// intercept runs the per-request span lifecycle: classify the request,
// open a span, delegate to next, then tag and close the span. Tracing is
// best-effort throughout; the only error it ever returns is the transport's
// own, passed through verbatim.
func (m *middleware) intercept(req *http.Request, next NextMiddleware) (*http.Response, error) {
	start := time.Now()

	tp := m.cfg.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(tracerName)

	path := ""
	if req.URL != nil {
		path = req.URL.Path
	}
	op := classifyPath(path)
	m.cfg.logger.Debug("tracing request", "method", req.Method, "path", path, "operation", op.Name())

	ctx := req.Context()

	// With no active parent, open a root span so the generation has a trace
	// to attach to.
	var rootSpan oteltrace.Span
	if !oteltrace.SpanContextFromContext(ctx).IsValid() {
		ctx, rootSpan = tracer.Start(ctx, m.cfg.traceName,
			oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
			oteltrace.WithAttributes(m.snapshot(ctx).Attributes()...),
		)
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrSystem, m.cfg.system),
		attribute.String(attrOperationName, op.Name()),
		attribute.String(attrObservationType, "generation"),
	}
	attrs = append(attrs, m.requestAttributes(req, op, path)...)

	ctx, span := tracer.Start(ctx, op.Name()+" "+m.cfg.system,
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attrs...),
	)
	req = req.WithContext(ctx)

	end := func() {
		span.SetAttributes(attribute.Int64(attrDurationMS, time.Since(start).Milliseconds()))
		span.End()
		if rootSpan != nil {
			rootSpan.End()
		}
	}

	resp, err := next(req)
	if err != nil {
		// Transport failure (including caller cancellation). No response
		// extraction; the error is recorded and returned unchanged.
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(m.snapshot(req.Context()).Attributes()...)
		end()
		return resp, err
	}

	span.SetAttributes(attribute.Int(attrHTTPResponseStatusCode, resp.StatusCode))

	switch {
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		span.SetStatus(codes.Error, "HTTP "+resp.Status)
	case isEventStream(resp):
		// Streaming responses are delivered incrementally; buffering the
		// body here would stall the client, so usage extraction is skipped.
		span.SetStatus(codes.Ok, "")
	default:
		body, readErr := bufferResponseBody(resp)
		if readErr != nil {
			// The replacement body fails the caller's read with the
			// same error; the span must not report OK for it.
			span.RecordError(readErr)
			span.SetStatus(codes.Error, readErr.Error())
		} else {
			span.SetAttributes(responseAttributes(body, op)...)
			span.SetStatus(codes.Ok, "")
		}
	}

	span.SetAttributes(m.snapshot(req.Context()).Attributes()...)
	end()
	return resp, nil
}

// requestAttributes reads and restores the request body, combining body
// attributes with the Azure deployment-path model fallback.
func (m *middleware) requestAttributes(req *http.Request, op Operation, path string) []attribute.KeyValue {
	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			m.cfg.logger.Warn("failed to read request body", "error", err)
			// Replay the prefix and then surface the same error, so the
			// transport fails the way it would have without tracing.
			req.Body = io.NopCloser(io.MultiReader(bytes.NewReader(b), errReader{err: err}))
			return nil
		}
		body = b
		req.Body = io.NopCloser(bytes.NewReader(body))
	}

	attrs := requestAttributes(body, op)

	// Azure carries the model in the URL, not the body.
	if !hasAttr(attrs, attrRequestModel) {
		if model, ok := modelFromDeploymentPath(path); ok {
			attrs = append(attrs,
				attribute.String(attrRequestModel, model),
				attribute.String(attrObservationModel, model),
			)
		}
	}
	return attrs
}

// snapshot returns the trace context for this request: the per-request
// value when one is threaded through the context, otherwise a consistent
// copy of the shared store.
func (m *middleware) snapshot(ctx context.Context) tracectx.Context {
	if tc, ok := tracectx.FromContext(ctx); ok {
		return tc
	}
	return m.cfg.store.Snapshot()
}

// bufferResponseBody reads the full response body and replaces it with an
// equivalent reader so the caller still sees the original bytes. If the read
// fails partway, the replacement replays the buffered prefix and then yields
// the same error, exactly as an unwrapped client would see it.
func bufferResponseBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		resp.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err: err}))
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// errReader yields err on every read.
type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

func isEventStream(resp *http.Response) bool {
	return strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
}

func hasAttr(attrs []attribute.KeyValue, key attribute.Key) bool {
	for _, kv := range attrs {
		if kv.Key == key {
			return true
		}
	}
	return false
}
