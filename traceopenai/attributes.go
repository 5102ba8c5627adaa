package traceopenai

// Span attribute names. The gen_ai.* names follow the OpenTelemetry GenAI
// semantic conventions; the langfuse.observation.* names follow the Langfuse
// OTel ingestion schema.
const (
	attrOperationName          = "gen_ai.operation.name"
	attrSystem                 = "gen_ai.system"
	attrRequestModel           = "gen_ai.request.model"
	attrResponseModel          = "gen_ai.response.model"
	attrUsageInputTokens       = "gen_ai.usage.input_tokens"
	attrUsageOutputTokens      = "gen_ai.usage.output_tokens"
	attrHTTPResponseStatusCode = "http.response.status_code"
	attrDurationMS             = "duration_ms"

	attrObservationType       = "langfuse.observation.type"
	attrObservationModel      = "langfuse.observation.model.name"
	attrObservationInput      = "langfuse.observation.input"
	attrObservationOutput     = "langfuse.observation.output"
	attrObservationUsageTotal = "langfuse.observation.usage.total"
)
