// Package langfuse provides helpers for exporting spans to Langfuse over
// OTLP/HTTP: endpoint URL construction, basic-auth header building, and a
// span exporter constructor.
//
// These are pure configuration helpers; the tracing middleware itself works
// with any OpenTelemetry backend.
package langfuse

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Environment variables read by the FromEnv helpers.
const (
	EnvHost      = "LANGFUSE_HOST"
	EnvPublicKey = "LANGFUSE_PUBLIC_KEY"
	EnvSecretKey = "LANGFUSE_SECRET_KEY"
)

// MissingEnvError is returned when a required environment variable is unset.
type MissingEnvError struct {
	Key string
}

func (e *MissingEnvError) Error() string {
	return fmt.Sprintf("missing %s environment variable", e.Key)
}

// OTLPEndpoint returns the Langfuse OTLP endpoint for the given base URL,
// e.g. "https://cloud.langfuse.com" -> "https://cloud.langfuse.com/api/public/otel".
func OTLPEndpoint(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + "/api/public/otel"
}

// OTLPEndpointFromEnv builds the OTLP endpoint from LANGFUSE_HOST.
func OTLPEndpointFromEnv() (string, error) {
	host := os.Getenv(EnvHost)
	if host == "" {
		return "", &MissingEnvError{Key: EnvHost}
	}
	return OTLPEndpoint(host), nil
}

// BasicAuth returns the value for an Authorization header authenticating
// with the given Langfuse key pair: "Basic base64(publicKey:secretKey)".
func BasicAuth(publicKey, secretKey string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(publicKey + ":" + secretKey))
	return "Basic " + encoded
}

// BasicAuthFromEnv builds the Authorization header value from
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func BasicAuthFromEnv() (string, error) {
	publicKey := os.Getenv(EnvPublicKey)
	if publicKey == "" {
		return "", &MissingEnvError{Key: EnvPublicKey}
	}
	secretKey := os.Getenv(EnvSecretKey)
	if secretKey == "" {
		return "", &MissingEnvError{Key: EnvSecretKey}
	}
	return BasicAuth(publicKey, secretKey), nil
}

// NewSpanExporter returns an OTLP/HTTP span exporter that sends spans to the
// Langfuse host, authenticated with the given key pair.
func NewSpanExporter(ctx context.Context, host, publicKey, secretKey string) (trace.SpanExporter, error) {
	endpoint := OTLPEndpoint(host)

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid langfuse host %q: %w", host, err)
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(u.Host),
		otlptracehttp.WithURLPath(u.Path + "/v1/traces"),
		otlptracehttp.WithHeaders(map[string]string{
			"Authorization": BasicAuth(publicKey, secretKey),
		}),
	}
	if u.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to create langfuse exporter: %w", err)
	}
	return exporter, nil
}

// NewSpanExporterFromEnv builds a span exporter from LANGFUSE_HOST,
// LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func NewSpanExporterFromEnv(ctx context.Context) (trace.SpanExporter, error) {
	for _, key := range []string{EnvHost, EnvPublicKey, EnvSecretKey} {
		if os.Getenv(key) == "" {
			return nil, &MissingEnvError{Key: key}
		}
	}
	return NewSpanExporter(ctx, os.Getenv(EnvHost), os.Getenv(EnvPublicKey), os.Getenv(EnvSecretKey))
}
