package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for relay observability spans and metrics.
var (
	AttrLLMModel    = attribute.Key("llm.model")
	AttrLLMProvider = attribute.Key("llm.provider")

	AttrTokensInput  = attribute.Key("llm.tokens.input")
	AttrTokensOutput = attribute.Key("llm.tokens.output")

	AttrToolCount = attribute.Key("llm.tool_count")
	AttrToolNames = attribute.Key("llm.tool_names")

	AttrStreamChunks = attribute.Key("llm.stream_chunks")

	AttrFunctionName         = attribute.Key("function.name")
	AttrFunctionStatus       = attribute.Key("function.status")
	AttrFunctionResultLength = attribute.Key("function.result_length")

	AttrThreadID   = attribute.Key("relay.thread_id")
	AttrTurnStatus = attribute.Key("relay.turn_status")
)
