package search

import (
	"context"
	"log/slog"

	"github.com/docgraph-io/docgraph/pkg/embedder"
	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/types"
	"github.com/docgraph-io/docgraph/pkg/utils"
)

// DefaultVectorMinScore filters out chunks whose cosine similarity to the
// question falls below this value.
const DefaultVectorMinScore = 0.65

// VectorSearcher scores chunks by cosine similarity between the question
// embedding and each in-scope chunk embedding.
type VectorSearcher struct {
	embedder embedder.Client
	store    graph.ChunkStore
	minScore float64
	logger   *slog.Logger
}

// NewVectorSearcher creates a vector searcher. minScore <= 0 selects the
// default threshold.
func NewVectorSearcher(embedder embedder.Client, store graph.ChunkStore, minScore float64, logger *slog.Logger) *VectorSearcher {
	if minScore <= 0 {
		minScore = DefaultVectorMinScore
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VectorSearcher{
		embedder: embedder,
		store:    store,
		minScore: minScore,
		logger:   logger,
	}
}

// Name implements Searcher.
func (s *VectorSearcher) Name() string {
	return "vector"
}

// Search implements Searcher. An embedding failure degrades to an empty
// result so the remaining signals still answer the query.
func (s *VectorSearcher) Search(ctx context.Context, question string, scope []string, topK int) ([]types.EvidenceItem, error) {
	queryEmbedding, err := s.embedder.EmbedSingle(ctx, question)
	if err != nil {
		s.logger.Warn("vector search degraded, question embedding failed", "error", err)
		return nil, nil
	}

	chunks, err := s.store.ChunksByScope(ctx, scope)
	if err != nil {
		return nil, err
	}

	scored := make([]utils.ScoredItem[*types.Chunk], 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		score := utils.CosineSimilarity(queryEmbedding, chunk.Embedding)
		if score < s.minScore {
			continue
		}
		scored = append(scored, utils.ScoredItem[*types.Chunk]{Item: chunk, Score: score})
	}

	top := utils.TopKByScore(scored, topK)
	items := make([]types.EvidenceItem, 0, len(top))
	for _, entry := range top {
		items = append(items, types.EvidenceItem{
			Content:    entry.Item.Text,
			DocumentID: entry.Item.DocumentID,
			Score:      entry.Score,
			Signals:    types.SignalScores{Vector: entry.Score},
		})
	}
	return items, nil
}

var _ Searcher = (*VectorSearcher)(nil)
