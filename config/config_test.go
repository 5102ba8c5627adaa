package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGFUSE_HOST", "")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "")
	t.Setenv("LANGFUSE_SECRET_KEY", "")
	t.Setenv("OPENAI_TRACE_SYSTEM", "")
	t.Setenv("OPENAI_TRACE_NAME", "")
	t.Setenv("OPENAI_TRACE_DEBUG", "")
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := FromEnv()

	assert.Equal(t, "", cfg.LangfuseHost)
	assert.Equal(t, "", cfg.LangfusePublicKey)
	assert.Equal(t, "", cfg.LangfuseSecretKey)
	assert.Equal(t, SystemOpenAI, cfg.System)
	assert.Equal(t, DefaultTraceName, cfg.TraceName)
	assert.False(t, cfg.Debug)
}

func TestFromEnv_LoadsEnvironmentVariables(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "https://cloud.langfuse.com")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk-lf-123")
	t.Setenv("LANGFUSE_SECRET_KEY", "sk-lf-456")
	t.Setenv("OPENAI_TRACE_SYSTEM", "azure.ai.openai")
	t.Setenv("OPENAI_TRACE_NAME", "my-pipeline")
	t.Setenv("OPENAI_TRACE_DEBUG", "true")

	cfg := FromEnv()

	assert.Equal(t, "https://cloud.langfuse.com", cfg.LangfuseHost)
	assert.Equal(t, "pk-lf-123", cfg.LangfusePublicKey)
	assert.Equal(t, "sk-lf-456", cfg.LangfuseSecretKey)
	assert.Equal(t, SystemAzure, cfg.System)
	assert.Equal(t, "my-pipeline", cfg.TraceName)
	assert.True(t, cfg.Debug)
}

func TestFromEnv_TrimsWhitespace(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "  https://cloud.langfuse.com  ")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "\tpk-lf-123\t")

	cfg := FromEnv()

	assert.Equal(t, "https://cloud.langfuse.com", cfg.LangfuseHost)
	assert.Equal(t, "pk-lf-123", cfg.LangfusePublicKey)
}

func TestFromEnv_DebugParsing(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"true", true},
		{"TRUE", true},
		{" true ", true},
		{"false", false},
		{"1", false},
		{"yes", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("value="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("OPENAI_TRACE_DEBUG", tt.value)
			assert.Equal(t, tt.want, FromEnv().Debug)
		})
	}
}

func validConfig() *Config {
	return &Config{
		LangfuseHost:      "https://cloud.langfuse.com",
		LangfusePublicKey: "pk-lf-123",
		LangfuseSecretKey: "sk-lf-456",
		System:            SystemOpenAI,
		TraceName:         DefaultTraceName,
	}
}

func TestIsValid(t *testing.T) {
	require.NoError(t, validConfig().IsValid())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing host", func(c *Config) { c.LangfuseHost = "" }},
		{"missing public key", func(c *Config) { c.LangfusePublicKey = "" }},
		{"missing secret key", func(c *Config) { c.LangfuseSecretKey = "" }},
		{"unknown system", func(c *Config) { c.System = "bedrock" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.IsValid())
		})
	}
}
