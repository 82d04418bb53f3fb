package docgraph

import (
	"context"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// Ingestor accepts documents into the knowledge graph and reports on their
// processing state.
type Ingestor interface {
	// Ingest processes one document and blocks until it reaches a terminal
	// status. The returned ID is valid even when ingestion fails.
	Ingest(ctx context.Context, text, name string, metadata map[string]string) (string, error)

	// Document returns one document's status.
	Document(ctx context.Context, id string) (*types.Document, error)

	// Documents returns all documents, most recently uploaded first.
	Documents(ctx context.Context) ([]*types.Document, error)
}

// Querier answers questions over previously ingested documents.
type Querier interface {
	// Retrieve returns ranked evidence for a question, restricted to the
	// documents in scope.
	Retrieve(ctx context.Context, question string, scope []string, opts *QueryOptions) ([]types.EvidenceItem, error)

	// Ask retrieves evidence and generates an answer grounded in it.
	Ask(ctx context.Context, question string, scope []string, opts *QueryOptions) (*Answer, error)

	// AskStream is the streaming variant of Ask. The channel closes after a
	// terminal done or error event.
	AskStream(ctx context.Context, question string, scope []string, opts *QueryOptions) (<-chan StreamEvent, error)
}

// Service is the full engine contract.
type Service interface {
	Ingestor
	Querier

	// Close releases the engine's resources.
	Close(ctx context.Context) error
}
