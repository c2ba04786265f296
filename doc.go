// Package hebrew answers questions about Hebrew PDF documents with
// retrieval-augmented generation.
//
// PDF extractors commonly emit Hebrew in visual order, so each extracted
// line reads backwards. The pipeline repairs direction per line, renders
// detected tables as markdown, splits text into overlapping windows,
// embeds every chunk into a flat L2 index and, at query time, feeds the
// nearest chunks to an LLM with a Hebrew instruction prompt.
//
// The root package holds the shared vocabulary: chunk and result types,
// the Embedder and Generator interfaces implemented by the provider
// packages, typed provider errors and the retry wrappers.
//
// # Packages
//
//   - rtl: direction repair and markdown table rendering
//   - ingest: PDF extraction and sliding-window chunking
//   - index: exact vector index with file-pair persistence
//   - engine: ingestion and question answering with provider fallback
//   - provider/gemini, provider/openaicompat: LLM and embedding backends
//   - observer: OpenTelemetry instrumentation for providers
//   - ingest/web: readable text from web pages
//   - store/sqlite, store/postgres: chat session history
//   - mcp: document search tools for MCP clients
//
// # Quick Start
//
//	emb := gemini.NewEmbedding(googleKey, "text-embedding-004", 768)
//	eng := engine.New(emb,
//		engine.WithPrimary(gemini.New(googleKey, "gemini-1.5-flash")),
//		engine.WithFallback(openaicompat.NewProvider(groqKey, "llama-3.3-70b-versatile", groqURL)),
//	)
//	if _, err := eng.AddDocument(ctx, "regulation.pdf", "food_regulation"); err != nil {
//		return err
//	}
//	res, err := eng.Search(ctx, "מהן דרישות הסימון?", 7)
package hebrew
