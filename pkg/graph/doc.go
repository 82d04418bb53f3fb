// Package graph defines the graph store contract and its implementations.
//
// The store holds Document, Chunk, and Entity nodes plus the relationship
// edges extracted between entities. Retrieval needs exactly four
// capabilities from it: scope-bound chunk listing (for vector scoring),
// contains-style text queries, bounded-hop relationship traversal, and
// idempotent upsert-by-identity writes. Two implementations are provided:
// Neo4jStore for server deployments and MemoryStore for tests and local use.
package graph
