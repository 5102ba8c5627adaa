package traceopenai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func findAttr(t *testing.T, attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	t.Helper()
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func stringAttr(t *testing.T, attrs []attribute.KeyValue, key string) string {
	t.Helper()
	v, ok := findAttr(t, attrs, key)
	require.True(t, ok, "missing attribute %q", key)
	return v.AsString()
}

func intAttr(t *testing.T, attrs []attribute.KeyValue, key string) int64 {
	t.Helper()
	v, ok := findAttr(t, attrs, key)
	require.True(t, ok, "missing attribute %q", key)
	return v.AsInt64()
}

func TestRequestAttributesChat(t *testing.T) {
	body := []byte(`{
		"model": "gpt-4o",
		"messages": [{"role": "user", "content": "Hello"}],
		"temperature": 0.7
	}`)

	attrs := requestAttributes(body, OperationChatCompletions)

	assert.Equal(t, "gpt-4o", stringAttr(t, attrs, attrRequestModel))
	assert.Equal(t, "gpt-4o", stringAttr(t, attrs, attrObservationModel))

	input := stringAttr(t, attrs, attrObservationInput)
	assert.Contains(t, input, `"messages"`)
	assert.Contains(t, input, "Hello")
	// Only the messages are captured, not tuning parameters.
	assert.NotContains(t, input, "temperature")
}

func TestRequestAttributesCompletionPrompt(t *testing.T) {
	body := []byte(`{"model": "gpt-3.5-turbo-instruct", "prompt": "Once upon a time"}`)

	attrs := requestAttributes(body, OperationCompletions)

	assert.Equal(t, "gpt-3.5-turbo-instruct", stringAttr(t, attrs, attrRequestModel))
	assert.Contains(t, stringAttr(t, attrs, attrObservationInput), "Once upon a time")
}

func TestRequestAttributesEmbeddings(t *testing.T) {
	body := []byte(`{"model": "text-embedding-3-small", "input": ["a", "b"]}`)

	attrs := requestAttributes(body, OperationEmbeddings)

	assert.Equal(t, "text-embedding-3-small", stringAttr(t, attrs, attrRequestModel))
	assert.JSONEq(t, `{"input": ["a", "b"]}`, stringAttr(t, attrs, attrObservationInput))
}

func TestRequestAttributesImageGeneration(t *testing.T) {
	body := []byte(`{"model": "dall-e-3", "prompt": "a red bicycle", "n": 2, "size": "1024x1024"}`)

	attrs := requestAttributes(body, OperationImageGeneration)

	input := stringAttr(t, attrs, attrObservationInput)
	assert.Contains(t, input, "a red bicycle")
	assert.Contains(t, input, "1024x1024")
}

func TestRequestAttributesMalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{"empty", nil},
		{"truncated json", []byte(`{"model": "gpt-4o"`)},
		{"not an object", []byte(`["model"]`)},
		{"not json", []byte("model=gpt-4o")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, requestAttributes(tt.body, OperationChatCompletions))
		})
	}
}

func TestResponseAttributesChatUsage(t *testing.T) {
	body := []byte(`{
		"model": "gpt-4o-2024-08-06",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "Hi there"}}],
		"usage": {"prompt_tokens": 9, "completion_tokens": 12, "total_tokens": 21}
	}`)

	attrs := responseAttributes(body, OperationChatCompletions)

	assert.Equal(t, "gpt-4o-2024-08-06", stringAttr(t, attrs, attrResponseModel))
	assert.Equal(t, int64(9), intAttr(t, attrs, attrUsageInputTokens))
	assert.Equal(t, int64(12), intAttr(t, attrs, attrUsageOutputTokens))
	assert.Equal(t, int64(21), intAttr(t, attrs, attrObservationUsageTotal))

	output := stringAttr(t, attrs, attrObservationOutput)
	assert.Contains(t, output, "Hi there")
}

// Newer endpoints report input_tokens/output_tokens instead of the classic
// prompt_tokens/completion_tokens names.
func TestResponseAttributesAlternateUsageNames(t *testing.T) {
	body := []byte(`{
		"model": "gpt-4o-mini",
		"usage": {"input_tokens": 4, "output_tokens": 7}
	}`)

	attrs := responseAttributes(body, OperationChatCompletions)

	assert.Equal(t, int64(4), intAttr(t, attrs, attrUsageInputTokens))
	assert.Equal(t, int64(7), intAttr(t, attrs, attrUsageOutputTokens))
}

// The classic names win when both schemes are present.
func TestResponseAttributesUsagePrecedence(t *testing.T) {
	body := []byte(`{
		"usage": {"prompt_tokens": 10, "input_tokens": 99, "completion_tokens": 20, "output_tokens": 99}
	}`)

	attrs := responseAttributes(body, OperationChatCompletions)

	assert.Equal(t, int64(10), intAttr(t, attrs, attrUsageInputTokens))
	assert.Equal(t, int64(20), intAttr(t, attrs, attrUsageOutputTokens))
}

// Absent or unusable token counts produce no attribute at all. A span
// without gen_ai.usage.input_tokens means "not reported", never zero.
func TestResponseAttributesNoUsageDefaults(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no usage object", `{"model": "gpt-4o"}`},
		{"empty usage", `{"usage": {}}`},
		{"string counts", `{"usage": {"prompt_tokens": "9"}}`},
		{"fractional counts", `{"usage": {"prompt_tokens": 9.5}}`},
		{"negative counts", `{"usage": {"prompt_tokens": -1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := responseAttributes([]byte(tt.body), OperationChatCompletions)
			_, ok := findAttr(t, attrs, attrUsageInputTokens)
			assert.False(t, ok)
			_, ok = findAttr(t, attrs, attrUsageOutputTokens)
			assert.False(t, ok)
		})
	}
}

func TestResponseAttributesEmbeddingsSummarized(t *testing.T) {
	body := []byte(`{
		"model": "text-embedding-3-small",
		"data": [
			{"embedding": [0.1, 0.2, 0.3]},
			{"embedding": [0.4, 0.5, 0.6]}
		],
		"usage": {"prompt_tokens": 5, "total_tokens": 5}
	}`)

	attrs := responseAttributes(body, OperationEmbeddings)

	// Raw vectors never land on the span, only a summary.
	output := stringAttr(t, attrs, attrObservationOutput)
	assert.Contains(t, output, `"embeddings_count":2`)
	assert.NotContains(t, output, "0.1")
}

func TestResponseAttributesImageGeneration(t *testing.T) {
	body := []byte(`{
		"data": [
			{"url": "https://example.com/a.png"},
			{"b64_json": "aGVsbG8="}
		]
	}`)

	attrs := responseAttributes(body, OperationImageGeneration)

	output := stringAttr(t, attrs, attrObservationOutput)
	assert.Contains(t, output, "https://example.com/a.png")
	assert.Contains(t, output, `"b64_images_count":1`)
	assert.NotContains(t, output, "aGVsbG8=")
}

func TestResponseAttributesAudio(t *testing.T) {
	body := []byte(`{"text": "hello world"}`)

	attrs := responseAttributes(body, OperationAudioTranscription)
	assert.Contains(t, stringAttr(t, attrs, attrObservationOutput), "hello world")

	attrs = responseAttributes(body, OperationAudioTranslation)
	assert.Contains(t, stringAttr(t, attrs, attrObservationOutput), "hello world")
}

func TestResponseAttributesMalformedBody(t *testing.T) {
	assert.Empty(t, responseAttributes([]byte(`not json at all`), OperationChatCompletions))
	assert.Empty(t, responseAttributes(nil, OperationChatCompletions))
}

func TestModelFromDeploymentPath(t *testing.T) {
	tests := []struct {
		path  string
		model string
		ok    bool
	}{
		{"/openai/deployments/gpt-4o-deployment/chat/completions", "gpt-4o-deployment", true},
		{"/openai/deployments/my-embedding/embeddings", "my-embedding", true},
		{"/v1/chat/completions", "", false},
		{"/openai/deployments/", "", false},
		{"/openai/deployments//chat/completions", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			model, ok := modelFromDeploymentPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.model, model)
		})
	}
}
