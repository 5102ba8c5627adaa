package traceopenai

import "strings"

// Operation identifies the kind of OpenAI API call a request path maps to.
type Operation int

const (
	// OperationUnknown is returned for paths that match no known endpoint.
	// Unknown requests are still traced, with minimal attributes.
	OperationUnknown Operation = iota
	// OperationChatCompletions is a /chat/completions call.
	OperationChatCompletions
	// OperationEmbeddings is an /embeddings call.
	OperationEmbeddings
	// OperationCompletions is a legacy /completions call.
	OperationCompletions
	// OperationImageGeneration is an /images/generations call.
	OperationImageGeneration
	// OperationAudioTranscription is an /audio/transcriptions call.
	OperationAudioTranscription
	// OperationAudioTranslation is an /audio/translations call.
	OperationAudioTranslation
)

// pathSuffixes maps API path suffixes to operations. Suffixes are mutually
// exclusive, but /chat/completions must be checked before /completions.
var pathSuffixes = []struct {
	suffix string
	op     Operation
}{
	{"/chat/completions", OperationChatCompletions},
	{"/embeddings", OperationEmbeddings},
	{"/completions", OperationCompletions},
	{"/images/generations", OperationImageGeneration},
	{"/audio/transcriptions", OperationAudioTranscription},
	{"/audio/translations", OperationAudioTranslation},
}

// classifyPath maps a request path to an Operation. It is total:
// unrecognized paths return OperationUnknown rather than an error, so
// tracing never blocks a request.
func classifyPath(path string) Operation {
	for _, s := range pathSuffixes {
		if strings.HasSuffix(path, s.suffix) {
			return s.op
		}
	}
	return OperationUnknown
}

// Name returns the operation name used for the gen_ai.operation.name
// attribute and as the first half of the span name.
func (op Operation) Name() string {
	switch op {
	case OperationChatCompletions:
		return "chat"
	case OperationEmbeddings:
		return "embeddings"
	case OperationCompletions:
		return "completion"
	case OperationImageGeneration:
		return "image"
	case OperationAudioTranscription:
		return "transcription"
	case OperationAudioTranslation:
		return "translation"
	default:
		return "unknown"
	}
}
