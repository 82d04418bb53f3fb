package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
	}{
		{
			name:     "identical unit vectors",
			a:        []float32{1, 0, 0},
			b:        []float32{1, 0, 0},
			expected: 1.0,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 2},
			b:        []float32{-1, -2},
			expected: -1.0,
		},
		{
			name:     "zero norm guard",
			a:        []float32{0, 0, 0},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "length mismatch",
			a:        []float32{1, 2},
			b:        []float32{1, 2, 3},
			expected: 0.0,
		},
		{
			name:     "empty vectors",
			a:        nil,
			b:        nil,
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilaritySelfIsOne(t *testing.T) {
	vectors := [][]float32{
		{0.3, -0.5, 0.81},
		{1, 1, 1, 1},
		{0.001, 42},
	}
	for _, v := range vectors {
		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-9)
	}
}

func TestTopKByScore(t *testing.T) {
	items := []ScoredItem[string]{
		{Item: "c", Score: 0.3},
		{Item: "a", Score: 0.9},
		{Item: "d", Score: 0.1},
		{Item: "b", Score: 0.7},
	}

	top := TopKByScore(items, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "a", top[0].Item)
	assert.Equal(t, "b", top[1].Item)

	all := TopKByScore(items, 10)
	require.Len(t, all, 4)
	assert.Equal(t, "a", all[0].Item)
	assert.Equal(t, "d", all[3].Item)

	assert.Nil(t, TopKByScore(items, 0))
	assert.Nil(t, TopKByScore[string](nil, 3))
}
