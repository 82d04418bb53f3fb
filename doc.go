// Package docgraph answers questions over a corpus of ingested documents by
// combining three retrieval signals over a knowledge graph: embedding
// similarity, lexical overlap, and entity relationship traversal. Fused,
// ranked evidence is handed to an LLM to generate grounded answers.
//
// The Engine type is the entry point. It is safe for concurrent use.
package docgraph
