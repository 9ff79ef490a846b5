package taxomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryIndexSearchRanksByCosine(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Replace([]VectorItem{
		{Label: "far", Vector: []float32{0, 1, 0}},
		{Label: "near", Vector: []float32{0.9, 0.1, 0}},
		{Label: "middle", Vector: []float32{0.5, 0.5, 0}},
	})
	require.Equal(t, 3, idx.Size())

	hits := idx.Search([]float32{1, 0, 0}, 3)
	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Label)
	assert.Equal(t, "middle", hits[1].Label)
	assert.Equal(t, "far", hits[2].Label)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestInMemoryIndexSearchLimitsToK(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Replace([]VectorItem{
		{Label: "a", Vector: []float32{1, 0}},
		{Label: "b", Vector: []float32{0, 1}},
		{Label: "c", Vector: []float32{1, 1}},
	})
	hits := idx.Search([]float32{1, 0}, 2)
	assert.Len(t, hits, 2)
}

func TestInMemoryIndexSearchEdgeCases(t *testing.T) {
	idx := NewInMemoryIndex()
	assert.Nil(t, idx.Search([]float32{1, 0}, 3), "empty index")

	idx.Replace([]VectorItem{{Label: "a", Vector: []float32{1, 0}}})
	assert.Nil(t, idx.Search(nil, 3), "empty query vector")
	assert.Nil(t, idx.Search([]float32{1, 0}, 0), "k = 0")
}

func TestInMemoryIndexTieBreaksByLabel(t *testing.T) {
	idx := NewInMemoryIndex()
	idx.Replace([]VectorItem{
		{Label: "zeta", Vector: []float32{1, 0}},
		{Label: "alpha", Vector: []float32{1, 0}},
	})
	hits := idx.Search([]float32{1, 0}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "alpha", hits[0].Label)
	assert.Equal(t, "zeta", hits[1].Label)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Zero(t, cosineSimilarity(nil, []float32{1}), "empty vector")
	assert.Zero(t, cosineSimilarity([]float32{0, 0}, []float32{1, 1}), "zero norm")
}
