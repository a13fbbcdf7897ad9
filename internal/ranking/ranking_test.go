package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	v := []float64{0.3, -1.2, 4.5}

	assert.InDelta(t, 1.0, Cosine(v, v), 1e-12)
	assert.InDelta(t, -1.0, Cosine(v, []float64{-0.3, 1.2, -4.5}), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, Cosine(v, []float64{1, 2, 3}), Cosine([]float64{1, 2, 3}, v), 1e-12)
}

func TestCosineDegenerateInputs(t *testing.T) {
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
	assert.Zero(t, Cosine([]float64{1, 1}, []float64{0, 0}))
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestRankOrdersByScore(t *testing.T) {
	vectors := [][]float64{
		{0, 1},
		{1, 0},
		{1, 1},
	}

	got := Rank([]float64{1, 0.1}, vectors, 2)

	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Index)
	assert.Equal(t, 2, got[1].Index)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
	for _, m := range got {
		assert.LessOrEqual(t, m.Score, 1.0)
		assert.GreaterOrEqual(t, m.Score, -1.0)
	}
}

func TestRankBounds(t *testing.T) {
	vectors := [][]float64{{1}, {2}, {3}}

	assert.Len(t, Rank([]float64{1}, vectors, 10), 3)
	assert.Len(t, Rank([]float64{1}, vectors, 1), 1)
	assert.Empty(t, Rank([]float64{1}, vectors, 0))
	assert.Empty(t, Rank([]float64{1}, nil, 5))
}

func TestRankTiesKeepInsertionOrder(t *testing.T) {
	vectors := [][]float64{
		{2, 0},
		{0, 1},
		{1, 0},
		{5, 0},
	}

	got := Rank([]float64{1, 0}, vectors, 4)

	indexes := make([]int, 0, len(got))
	for _, m := range got {
		indexes = append(indexes, m.Index)
	}
	assert.Equal(t, []int{0, 2, 3, 1}, indexes)
}

func TestRankIsIdempotent(t *testing.T) {
	vectors := [][]float64{{0.1, 0.9}, {0.5, 0.5}, {0.5, 0.5}, {0.9, 0.1}}
	query := []float64{0.4, 0.6}

	assert.Equal(t, Rank(query, vectors, 3), Rank(query, vectors, 3))
}
