package search

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docgraph-io/docgraph/pkg/graph"
	"github.com/docgraph-io/docgraph/pkg/llm"
	"github.com/docgraph-io/docgraph/pkg/types"
	"github.com/docgraph-io/docgraph/pkg/utils"
)

// DefaultMaxHops bounds relationship traversal from a seed entity.
const DefaultMaxHops = 3

// GraphSearcher scores chunks by walking relationship paths outward from
// entities named in the question. Shorter paths score higher; a path touching
// more question terms scores higher still.
type GraphSearcher struct {
	extractor llm.Extractor
	store     graph.Traverser
	maxHops   int
	logger    *slog.Logger
}

// NewGraphSearcher creates a graph searcher. maxHops <= 0 selects the
// default bound.
func NewGraphSearcher(extractor llm.Extractor, store graph.Traverser, maxHops int, logger *slog.Logger) *GraphSearcher {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GraphSearcher{
		extractor: extractor,
		store:     store,
		maxHops:   maxHops,
		logger:    logger,
	}
}

// Name implements Searcher.
func (s *GraphSearcher) Name() string {
	return "graph"
}

// Search implements Searcher. Term extraction failure degrades to an empty
// result; the extractor itself already falls back to a heuristic before
// reporting failure.
func (s *GraphSearcher) Search(ctx context.Context, question string, scope []string, topK int) ([]types.EvidenceItem, error) {
	terms, err := s.extractor.QueryTerms(ctx, question)
	if err != nil {
		s.logger.Warn("graph search degraded, query term extraction failed", "error", err)
		return nil, nil
	}
	if len(terms) == 0 {
		return nil, nil
	}

	lowered := make([]string, len(terms))
	for i, term := range terms {
		lowered[i] = strings.ToLower(term)
	}

	paths, err := s.store.TraverseEntityPaths(ctx, lowered, scope, s.maxHops)
	if err != nil {
		return nil, err
	}

	// Multiple paths frequently anchor to the same chunk. The chunk scores
	// as its best path; its evidence carries every entity and relationship
	// traversed from it.
	grouped := make(map[string]*anchoredChunk)
	order := make([]string, 0, len(paths))
	for _, path := range paths {
		if path.Chunk == nil || path.Len() == 0 {
			continue
		}
		score := pathScore(path, lowered)
		if score <= 0 {
			continue
		}
		group, seen := grouped[path.Chunk.ID]
		if !seen {
			group = newAnchoredChunk(path.Chunk)
			grouped[path.Chunk.ID] = group
			order = append(order, path.Chunk.ID)
		}
		group.absorb(path, score)
	}

	scored := make([]utils.ScoredItem[*anchoredChunk], 0, len(order))
	for _, chunkID := range order {
		group := grouped[chunkID]
		scored = append(scored, utils.ScoredItem[*anchoredChunk]{Item: group, Score: group.score})
	}

	top := utils.TopKByScore(scored, topK)
	items := make([]types.EvidenceItem, 0, len(top))
	for _, entry := range top {
		items = append(items, types.EvidenceItem{
			Content:       entry.Item.chunk.Text,
			DocumentID:    entry.Item.chunk.DocumentID,
			Score:         entry.Score,
			Signals:       types.SignalScores{Graph: entry.Score},
			Entities:      entry.Item.entities,
			Relationships: entry.Item.relationships,
		})
	}
	return items, nil
}

// anchoredChunk accumulates the paths anchored to one chunk.
type anchoredChunk struct {
	chunk         *types.Chunk
	score         float64
	entities      []types.Entity
	relationships []types.Relationship
	seenEntities  map[string]struct{}
	seenRels      map[string]struct{}
}

func newAnchoredChunk(chunk *types.Chunk) *anchoredChunk {
	return &anchoredChunk{
		chunk:        chunk,
		seenEntities: make(map[string]struct{}),
		seenRels:     make(map[string]struct{}),
	}
}

func (a *anchoredChunk) absorb(path graph.Path, score float64) {
	if score > a.score {
		a.score = score
	}
	for _, entity := range path.Entities {
		key := entity.Key()
		if _, dup := a.seenEntities[key]; dup {
			continue
		}
		a.seenEntities[key] = struct{}{}
		a.entities = append(a.entities, entity)
	}
	for _, rel := range path.Relationships {
		key := rel.Key()
		if _, dup := a.seenRels[key]; dup {
			continue
		}
		a.seenRels[key] = struct{}{}
		a.relationships = append(a.relationships, rel)
	}
}

// pathScore is (1 / pathLength) x matchCount, where matchCount is the number
// of path entities whose name contains a question term.
func pathScore(path graph.Path, lowered []string) float64 {
	matchCount := 0
	for _, entity := range path.Entities {
		name := strings.ToLower(entity.Name)
		for _, term := range lowered {
			if term != "" && strings.Contains(name, term) {
				matchCount++
				break
			}
		}
	}
	if matchCount == 0 {
		return 0
	}
	return float64(matchCount) / float64(path.Len())
}

var _ Searcher = (*GraphSearcher)(nil)
