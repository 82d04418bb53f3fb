package graph

import (
	"context"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// Provider represents the backing graph store implementation.
type Provider string

const (
	ProviderNeo4j  Provider = "neo4j"
	ProviderMemory Provider = "memory"
)

// Path is one traversal result: a chain of entities connected by
// relationships, anchored to the chunk that evidences its head entity.
// Entities appear in traversal order, head first.
type Path struct {
	Chunk         *types.Chunk
	Entities      []types.Entity
	Relationships []types.Relationship
}

// Len returns the number of entity nodes on the path.
func (p Path) Len() int {
	return len(p.Entities)
}

// This file defines focused interfaces composed into the Store interface.
// Consumers should depend on the smallest interface that meets their needs.

// DocumentStore provides operations on document nodes. Documents are only
// mutated through these methods by the ingestion pipeline.
type DocumentStore interface {
	// CreateDocument persists a new document node.
	CreateDocument(ctx context.Context, doc *types.Document) error

	// SetDocumentStatus transitions a document's status, recording the error
	// message when the status is DocumentError.
	SetDocumentStatus(ctx context.Context, id string, status types.DocumentStatus, message string) error

	// GetDocument retrieves a document by ID. Returns
	// types.ErrDocumentNotFound when no such document exists.
	GetDocument(ctx context.Context, id string) (*types.Document, error)

	// ListDocuments retrieves all documents, most recently uploaded first.
	ListDocuments(ctx context.Context) ([]*types.Document, error)
}

// ChunkStore provides chunk persistence and scope-bound retrieval.
type ChunkStore interface {
	// PersistChunk writes a chunk node, its edge to the owning document, its
	// extracted entities (merged by (name, type) identity), and the
	// relationships between them, atomically: either everything for the
	// chunk lands or nothing does.
	PersistChunk(ctx context.Context, chunk *types.Chunk, entities []types.Entity, relationships []types.Relationship) error

	// ChunksByScope retrieves every chunk owned by the given documents,
	// embeddings included. An empty scope yields no chunks.
	ChunksByScope(ctx context.Context, scope []string) ([]*types.Chunk, error)
}

// ChunkSearcher provides text queries over chunks, always intersected with
// the document scope.
type ChunkSearcher interface {
	// SearchChunksByTokens retrieves in-scope chunks whose text contains at
	// least one of the given lowercase tokens.
	SearchChunksByTokens(ctx context.Context, tokens []string, scope []string) ([]*types.Chunk, error)

	// SearchChunksBySubstring retrieves in-scope chunks whose text contains
	// the query as a case-insensitive substring.
	SearchChunksBySubstring(ctx context.Context, query string, scope []string) ([]*types.Chunk, error)
}

// Traverser provides bounded-hop relationship traversal. Every node on a
// returned path is evidenced by at least one chunk inside the scope; paths
// never leave the scope.
type Traverser interface {
	// TraverseEntityPaths finds entities matching any of the given lowercase
	// terms (case-insensitive substring match on the entity name) and walks
	// relationship edges outward up to maxHops, returning one path per
	// (seed, endpoint) pair.
	TraverseEntityPaths(ctx context.Context, terms []string, scope []string, maxHops int) ([]Path, error)
}

// Admin provides lifecycle and maintenance operations.
type Admin interface {
	// CreateIndices creates store indices and constraints.
	CreateIndices(ctx context.Context) error

	// Close releases all resources held by the store.
	Close(ctx context.Context) error
}

// Store is the full graph store contract. All queries are parameterized;
// implementations must never interpolate caller-supplied values into query
// text.
type Store interface {
	DocumentStore
	ChunkStore
	ChunkSearcher
	Traverser
	Admin

	// Provider returns the backing implementation type.
	Provider() Provider
}
