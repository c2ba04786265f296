package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for generation, embedding and ingest telemetry.
var (
	AttrLLMModel    = attribute.Key("llm.model")
	AttrLLMProvider = attribute.Key("llm.provider")
	AttrStatus      = attribute.Key("status")

	AttrPromptChars = attribute.Key("llm.prompt_chars")
	AttrAnswerChars = attribute.Key("llm.answer_chars")

	AttrEmbedTextCount  = attribute.Key("llm.embed.text_count")
	AttrEmbedDimensions = attribute.Key("llm.embed.dimensions")

	AttrDocID  = attribute.Key("doc.id")
	AttrSource = attribute.Key("doc.source")
)
