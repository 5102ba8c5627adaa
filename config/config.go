// Package config provides configuration management for the tracing SDK.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/timvw/openai-tracing-go/logger"
)

// Systems accepted for the gen_ai.system span attribute.
const (
	SystemOpenAI = "openai"
	SystemAzure  = "azure.ai.openai"
)

// DefaultTraceName is the name given to root spans created by the middleware
// when no parent span is active.
const DefaultTraceName = "OpenAI-generation"

// Config holds immutable configuration for the tracing SDK.
type Config struct {
	// Langfuse export settings
	LangfuseHost      string
	LangfusePublicKey string
	LangfuseSecretKey string

	// System identifies which provider configuration produced the traced
	// requests; it becomes the gen_ai.system span attribute.
	System string

	// TraceName is the name for root spans created when no parent span is
	// active in the calling context.
	TraceName string

	// Debug enables a stdout span exporter alongside the Langfuse one.
	Debug bool

	// Logger
	Logger logger.Logger
}

// FromEnv loads configuration from environment variables with defaults.
//
// Supported environment variables:
//   - LANGFUSE_HOST: Langfuse base URL (e.g. "https://cloud.langfuse.com")
//   - LANGFUSE_PUBLIC_KEY: Langfuse public key
//   - LANGFUSE_SECRET_KEY: Langfuse secret key
//   - OPENAI_TRACE_SYSTEM: "openai" or "azure.ai.openai" (default: "openai")
//   - OPENAI_TRACE_NAME: root span name (default: "OpenAI-generation")
//   - OPENAI_TRACE_DEBUG: also export spans to stdout (default: false)
func FromEnv() *Config {
	return &Config{
		LangfuseHost:      getEnvString("LANGFUSE_HOST", ""),
		LangfusePublicKey: getEnvString("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey: getEnvString("LANGFUSE_SECRET_KEY", ""),
		System:            getEnvString("OPENAI_TRACE_SYSTEM", SystemOpenAI),
		TraceName:         getEnvString("OPENAI_TRACE_NAME", DefaultTraceName),
		Debug:             getEnvBool("OPENAI_TRACE_DEBUG", false),
	}
}

// getEnvString returns the trimmed environment variable value or the default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

// getEnvBool returns the environment variable as a bool or the default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(strings.TrimSpace(value)) == "true"
	}
	return defaultValue
}

// IsValid checks if the configuration has all fields required for exporting
// spans to Langfuse. Returns an error if any required field is missing.
func (c *Config) IsValid() error {
	if c.LangfuseHost == "" {
		return fmt.Errorf("langfuse host is required")
	}
	if c.LangfusePublicKey == "" {
		return fmt.Errorf("langfuse public key is required")
	}
	if c.LangfuseSecretKey == "" {
		return fmt.Errorf("langfuse secret key is required")
	}
	if c.System != SystemOpenAI && c.System != SystemAzure {
		return fmt.Errorf("unknown system %q", c.System)
	}
	return nil
}
