// Package retrieval implements exact nearest-neighbour lookup over a fixed
// matrix of embedding vectors.
package retrieval

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// normEpsilon keeps zero vectors from dividing by zero; they end up
// near-orthogonal to everything.
const normEpsilon = 1e-9

// Index holds a row-normalized copy of the corpus vectors and the block id of
// each row.
type Index struct {
	ids  []int
	rows [][]float64
	dim  int
}

// NewIndex builds an index. ids[i] is the block id of vecs[i].
func NewIndex(ids []int, vecs [][]float32) (*Index, error) {
	if len(ids) != len(vecs) {
		return nil, fmt.Errorf("ids/vectors length mismatch: %d vs %d", len(ids), len(vecs))
	}
	idx := &Index{
		ids:  append([]int(nil), ids...),
		rows: make([][]float64, len(vecs)),
	}
	for i, v := range vecs {
		if i == 0 {
			idx.dim = len(v)
		} else if len(v) != idx.dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), idx.dim)
		}
		idx.rows[i] = normalize(v)
	}
	return idx, nil
}

// Len returns the corpus size.
func (idx *Index) Len() int { return len(idx.rows) }

// TopK returns the row positions of the k most similar corpus vectors,
// ordered by descending cosine similarity. Ties keep corpus order. k is
// clamped to [1, Len()].
func (idx *Index) TopK(query []float32, k int) []int {
	n := len(idx.rows)
	if n == 0 {
		return nil
	}
	k = clamp(k, 1, n)

	q := normalize(query)
	sims := make([]float64, n)
	for i, row := range idx.rows {
		sims[i] = dot(q, row)
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})
	return order[:k]
}

// TopKIDs is TopK mapped to block ids.
func (idx *Index) TopKIDs(query []float32, k int) []int {
	pos := idx.TopK(query, k)
	out := make([]int, len(pos))
	for i, p := range pos {
		out[i] = idx.ids[p]
	}
	return out
}

// ErrEmptyCorpus is returned by TopK when there is nothing to search.
var ErrEmptyCorpus = errors.New("empty corpus")

// TopK searches an ad-hoc corpus and returns row positions.
func TopK(query []float32, corpus [][]float32, k int) ([]int, error) {
	if len(corpus) == 0 {
		return nil, ErrEmptyCorpus
	}
	ids := make([]int, len(corpus))
	for i := range ids {
		ids[i] = i
	}
	idx, err := NewIndex(ids, corpus)
	if err != nil {
		return nil, err
	}
	return idx.TopK(query, k), nil
}

func normalize(v []float32) []float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum) + normEpsilon
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x) / norm
	}
	return out
}

func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var s float64
	for i := 0; i < n; i++ {
		s += a[i] * b[i]
	}
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
