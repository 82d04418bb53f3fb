package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docgraph-io/docgraph/pkg/types"
)

func evidence(content string, score float64) types.EvidenceItem {
	return types.EvidenceItem{Content: content, DocumentID: "doc", Score: score}
}

func TestMergeWeightedSum(t *testing.T) {
	vector := []types.EvidenceItem{evidence("shared chunk", 0.8)}
	lexical := []types.EvidenceItem{evidence("shared chunk", 0.5)}

	result := Merge(vector, lexical, nil, DefaultWeights(), 5)

	require.Len(t, result, 1)
	assert.InDelta(t, 0.8*0.4+0.5*0.3, result[0].Score, 1e-9)
	assert.InDelta(t, 0.47, result[0].Score, 1e-9)
	assert.InDelta(t, 0.8, result[0].Signals.Vector, 1e-9)
	assert.InDelta(t, 0.5, result[0].Signals.Lexical, 1e-9)
	assert.Zero(t, result[0].Signals.Graph)
}

func TestMergeDeduplicatesByContent(t *testing.T) {
	vector := []types.EvidenceItem{evidence("a", 0.9), evidence("b", 0.7)}
	lexical := []types.EvidenceItem{evidence("a", 1.0)}
	graphItems := []types.EvidenceItem{evidence("a", 0.5)}

	result := Merge(vector, lexical, graphItems, DefaultWeights(), 5)

	require.Len(t, result, 2)
	assert.Equal(t, "a", result[0].Content)
	assert.InDelta(t, 0.9*0.4+1.0*0.3+0.5*0.3, result[0].Score, 1e-9)
	assert.Equal(t, "b", result[1].Content)
}

func TestMergeOrderNonIncreasingAndStableTies(t *testing.T) {
	// Equal fused scores; "first" enters the merged set before "second".
	vector := []types.EvidenceItem{evidence("first", 0.5), evidence("second", 0.5)}

	result := Merge(vector, nil, nil, DefaultWeights(), 5)

	require.Len(t, result, 2)
	assert.Equal(t, "first", result[0].Content)
	assert.Equal(t, "second", result[1].Content)
	for i := 1; i < len(result); i++ {
		assert.LessOrEqual(t, result[i].Score, result[i-1].Score)
	}

	// Ties across lists resolve by signal order: vector before graph.
	graphItems := []types.EvidenceItem{evidence("from-graph", 0.5)}
	vector = []types.EvidenceItem{evidence("from-vector", 0.375)}
	mixed := Merge(vector, nil, graphItems, DefaultWeights(), 5)
	require.Len(t, mixed, 2)
	assert.InDelta(t, mixed[0].Score, mixed[1].Score, 1e-9)
	assert.Equal(t, "from-vector", mixed[0].Content)
}

func TestMergeTruncatesToLimit(t *testing.T) {
	var vector []types.EvidenceItem
	for _, content := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		vector = append(vector, evidence(content, 0.9))
	}

	result := Merge(vector, nil, nil, DefaultWeights(), 5)
	assert.Len(t, result, 5)
}

func TestMergeUnionsEntitiesAndRelationships(t *testing.T) {
	paris := types.Entity{Name: "Paris", Type: "LOCATION"}
	france := types.Entity{Name: "France", Type: "LOCATION"}
	located := types.Relationship{Source: "Paris", Target: "France", Type: "LOCATED_IN"}

	vector := []types.EvidenceItem{{Content: "x", Score: 0.8, Entities: []types.Entity{paris}}}
	graphItems := []types.EvidenceItem{{
		Content:       "x",
		Score:         0.5,
		Entities:      []types.Entity{paris, france},
		Relationships: []types.Relationship{located, located},
	}}

	result := Merge(vector, nil, graphItems, DefaultWeights(), 5)

	require.Len(t, result, 1)
	assert.Len(t, result[0].Entities, 2)
	assert.Len(t, result[0].Relationships, 1)
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, nil, nil, DefaultWeights(), 5))
}
