// Package ranking scores catalog vectors against a query vector.
package ranking

import (
	"math"
	"sort"
)

// Match is a ranked catalog position.
type Match struct {
	// Index into the vectors passed to Rank.
	Index int
	Score float64
}

// Cosine returns the cosine similarity of a and b in [-1, 1]. It is 0 when
// either vector has zero norm or the dimensions differ.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}

	score := dot / (math.Sqrt(na) * math.Sqrt(nb))
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	case math.IsNaN(score):
		return 0
	}
	return score
}

// Rank returns the topN best matching vectors ordered by descending score.
// Equal scores keep their input order.
func Rank(query []float64, vectors [][]float64, topN int) []Match {
	if topN <= 0 || len(vectors) == 0 {
		return []Match{}
	}

	matches := make([]Match, len(vectors))
	for i, v := range vectors {
		matches[i] = Match{Index: i, Score: Cosine(query, v)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if topN < len(matches) {
		matches = matches[:topN]
	}
	return matches
}
