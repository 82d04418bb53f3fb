package search

import (
	"sort"

	"github.com/docgraph-io/docgraph/pkg/types"
)

// Merge fuses the per-signal evidence lists into one ranked list. Items with
// identical content strings are the same evidence; their weighted signal
// scores add up and their entities and relationships union. Ordering is by
// fused score descending, with ties resolved by first appearance across the
// lists in vector, lexical, graph order.
func Merge(vector, lexical, graph []types.EvidenceItem, weights Weights, limit int) []types.EvidenceItem {
	type accumulator struct {
		item  types.EvidenceItem
		order int
	}

	merged := make(map[string]*accumulator)
	var order []string

	absorb := func(items []types.EvidenceItem, weight float64, assign func(*types.SignalScores, float64)) {
		for _, item := range items {
			acc, ok := merged[item.Content]
			if !ok {
				acc = &accumulator{
					item: types.EvidenceItem{
						Content:    item.Content,
						DocumentID: item.DocumentID,
					},
					order: len(order),
				}
				merged[item.Content] = acc
				order = append(order, item.Content)
			}

			// Searchers emit their raw signal value as Score.
			signal := item.Score
			assign(&acc.item.Signals, signal)
			acc.item.Score += signal * weight
			acc.item.Entities = unionEntities(acc.item.Entities, item.Entities)
			acc.item.Relationships = unionRelationships(acc.item.Relationships, item.Relationships)
		}
	}

	absorb(vector, weights.Vector, func(s *types.SignalScores, v float64) { s.Vector = v })
	absorb(lexical, weights.Lexical, func(s *types.SignalScores, v float64) { s.Lexical = v })
	absorb(graph, weights.Graph, func(s *types.SignalScores, v float64) { s.Graph = v })

	result := make([]types.EvidenceItem, 0, len(order))
	orders := make(map[string]int, len(order))
	for _, content := range order {
		acc := merged[content]
		orders[content] = acc.order
		result = append(result, acc.item)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return orders[result[i].Content] < orders[result[j].Content]
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func unionEntities(existing, incoming []types.Entity) []types.Entity {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, entity := range existing {
		seen[entity.Key()] = struct{}{}
	}
	for _, entity := range incoming {
		if _, dup := seen[entity.Key()]; dup {
			continue
		}
		seen[entity.Key()] = struct{}{}
		existing = append(existing, entity)
	}
	return existing
}

func unionRelationships(existing, incoming []types.Relationship) []types.Relationship {
	if len(incoming) == 0 {
		return existing
	}
	seen := make(map[string]struct{}, len(existing))
	for _, rel := range existing {
		seen[rel.Key()] = struct{}{}
	}
	for _, rel := range incoming {
		if _, dup := seen[rel.Key()]; dup {
			continue
		}
		seen[rel.Key()] = struct{}{}
		existing = append(existing, rel)
	}
	return existing
}
