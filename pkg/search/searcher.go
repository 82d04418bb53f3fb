// Package search implements the retrieval signals and score fusion that turn
// a question into ranked evidence.
package search

import (
	"context"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// Searcher is one retrieval signal. Implementations fail soft: when the
// signal's backing provider is unavailable they return an empty list, not an
// error, so one degraded signal never sinks a query.
type Searcher interface {
	// Name identifies the signal in logs and score attribution.
	Name() string

	// Search returns scored evidence for the question, limited to chunks
	// owned by the documents in scope, at most topK items.
	Search(ctx context.Context, question string, scope []string, topK int) ([]types.EvidenceItem, error)
}

// Weights control the contribution of each signal during fusion. Callers are
// expected to pass weights summing to 1; this is not enforced.
type Weights struct {
	Vector  float64
	Lexical float64
	Graph   float64
}

// DefaultWeights favor the vector signal, with lexical and graph splitting
// the remainder evenly.
func DefaultWeights() Weights {
	return Weights{Vector: 0.4, Lexical: 0.3, Graph: 0.3}
}
