package traceopenai

import (
	"encoding/json"
	"strings"

	"go.opentelemetry.io/otel/attribute"
)

// Payload extraction is strictly best-effort: bodies that are not JSON
// objects, and fields that are missing or of an unexpected type, produce no
// attributes rather than errors. Absent token counts are never reported as
// zero, since zero is a real value and "not reported" is not.

// requestAttributes extracts span attributes from a request body.
func requestAttributes(body []byte, op Operation) []attribute.KeyValue {
	payload := parseObject(body)
	if payload == nil {
		return nil
	}

	var attrs []attribute.KeyValue
	if model, ok := stringField(payload, "model"); ok {
		attrs = append(attrs,
			attribute.String(attrRequestModel, model),
			attribute.String(attrObservationModel, model),
		)
	}
	if input, ok := observationInput(payload, op); ok {
		attrs = append(attrs, attribute.String(attrObservationInput, input))
	}
	return attrs
}

// responseAttributes extracts span attributes from a response body.
func responseAttributes(body []byte, op Operation) []attribute.KeyValue {
	payload := parseObject(body)
	if payload == nil {
		return nil
	}

	var attrs []attribute.KeyValue
	if model, ok := stringField(payload, "model"); ok {
		attrs = append(attrs, attribute.String(attrResponseModel, model))
	}

	if usage, ok := payload["usage"].(map[string]any); ok {
		// Responses use either naming scheme depending on endpoint and API
		// version; the prompt/completion names win when both are present.
		if n, ok := intField(usage, "prompt_tokens", "input_tokens"); ok {
			attrs = append(attrs, attribute.Int64(attrUsageInputTokens, n))
		}
		if n, ok := intField(usage, "completion_tokens", "output_tokens"); ok {
			attrs = append(attrs, attribute.Int64(attrUsageOutputTokens, n))
		}
		if n, ok := intField(usage, "total_tokens"); ok {
			attrs = append(attrs, attribute.Int64(attrObservationUsageTotal, n))
		}
	}

	if output, ok := observationOutput(payload, op); ok {
		attrs = append(attrs, attribute.String(attrObservationOutput, output))
	}
	return attrs
}

// modelFromDeploymentPath extracts the deployment id from an Azure-style
// request path (".../openai/deployments/{deployment-id}/chat/completions").
// Azure requests carry the model in the URL rather than the body.
func modelFromDeploymentPath(path string) (string, bool) {
	const marker = "/deployments/"
	i := strings.Index(path, marker)
	if i < 0 {
		return "", false
	}
	rest := path[i+len(marker):]
	j := strings.IndexByte(rest, '/')
	if j <= 0 {
		return "", false
	}
	return rest[:j], true
}

// observationInput builds the langfuse.observation.input value from the
// request payload, keeping only the operation's meaningful input fields.
func observationInput(payload map[string]any, op Operation) (string, bool) {
	switch op {
	case OperationChatCompletions:
		if messages, ok := payload["messages"]; ok {
			return encodeJSON(map[string]any{"messages": messages})
		}
	case OperationCompletions:
		if prompt, ok := payload["prompt"]; ok {
			return encodeJSON(map[string]any{"prompt": prompt})
		}
	case OperationEmbeddings:
		if input, ok := payload["input"]; ok {
			return encodeJSON(map[string]any{"input": input})
		}
	case OperationImageGeneration:
		input := map[string]any{}
		for _, key := range []string{"prompt", "n", "size"} {
			if v, ok := payload[key]; ok {
				input[key] = v
			}
		}
		if len(input) > 0 {
			return encodeJSON(input)
		}
	}
	return "", false
}

// observationOutput builds the langfuse.observation.output value from the
// response payload. Large values (embedding vectors, image payloads) are
// summarized rather than copied wholesale.
func observationOutput(payload map[string]any, op Operation) (string, bool) {
	switch op {
	case OperationChatCompletions:
		choices, ok := payload["choices"].([]any)
		if !ok || len(choices) == 0 {
			return "", false
		}
		first, ok := choices[0].(map[string]any)
		if !ok {
			return "", false
		}
		message, ok := first["message"]
		if !ok {
			return "", false
		}
		return encodeJSON(map[string]any{
			"choices": []any{map[string]any{"message": message}},
		})

	case OperationCompletions:
		choices, ok := payload["choices"].([]any)
		if !ok {
			return "", false
		}
		texts := make([]any, 0, len(choices))
		for _, c := range choices {
			if choice, ok := c.(map[string]any); ok {
				if text, ok := choice["text"]; ok {
					texts = append(texts, text)
				}
			}
		}
		return encodeJSON(map[string]any{"choices": texts})

	case OperationEmbeddings:
		data, ok := payload["data"].([]any)
		if !ok {
			return "", false
		}
		return encodeJSON(map[string]any{
			"embeddings_count": len(data),
			"model":            payload["model"],
		})

	case OperationImageGeneration:
		data, ok := payload["data"].([]any)
		if !ok {
			return "", false
		}
		var urls []any
		b64Count := 0
		for _, d := range data {
			item, ok := d.(map[string]any)
			if !ok {
				continue
			}
			if u, ok := item["url"]; ok {
				urls = append(urls, u)
			}
			if _, ok := item["b64_json"]; ok {
				b64Count++
			}
		}
		return encodeJSON(map[string]any{
			"urls":             urls,
			"b64_images_count": b64Count,
		})

	case OperationAudioTranscription, OperationAudioTranslation:
		if text, ok := stringField(payload, "text"); ok {
			return encodeJSON(map[string]any{"text": text})
		}
	}
	return "", false
}

// parseObject decodes body as a JSON object, returning nil for anything else.
func parseObject(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	return payload
}

// stringField returns the named field if it is a non-empty string.
func stringField(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// intField returns the first of the named fields that holds a non-negative
// integer. JSON numbers decode as float64; fractional values are rejected.
func intField(m map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		f, ok := m[key].(float64)
		if !ok {
			continue
		}
		n := int64(f)
		if float64(n) != f || n < 0 {
			continue
		}
		return n, true
	}
	return 0, false
}

func encodeJSON(v any) (string, bool) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(b), true
}
