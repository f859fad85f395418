package index

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Hit is a search result: the position of the vector in the index and its
// cosine similarity to the query.
type Hit struct {
	Pos   int
	Score float64
}

// Index is an immutable in-memory set of unit vectors searched by cosine similarity.
type Index struct {
	dims    int
	vectors [][]float64
}

// New copies and normalizes the vectors. All vectors must share one dimension.
// Zero vectors are kept and always score 0.
func New(vectors [][]float32) (*Index, error) {
	idx := &Index{vectors: make([][]float64, len(vectors))}
	for i, v := range vectors {
		if i == 0 {
			idx.dims = len(v)
		}
		if len(v) != idx.dims {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, want %d", ErrDimensionMismatch, i, len(v), idx.dims)
		}
		idx.vectors[i] = normalize(v)
	}
	return idx, nil
}

func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.vectors)
}

func (idx *Index) Dimensions() int {
	if idx == nil {
		return 0
	}
	return idx.dims
}

// Search returns up to k hits ordered by descending similarity, ties by position.
// When subset is non-nil only those positions are considered.
func (idx *Index) Search(query []float32, subset []int, k int) ([]Hit, error) {
	if k <= 0 || idx.Len() == 0 {
		return []Hit{}, nil
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, want %d", ErrDimensionMismatch, len(query), idx.dims)
	}

	q := normalize(query)

	var hits []Hit
	if subset == nil {
		hits = make([]Hit, 0, len(idx.vectors))
		for pos, v := range idx.vectors {
			hits = append(hits, Hit{Pos: pos, Score: dot(q, v)})
		}
	} else {
		hits = make([]Hit, 0, len(subset))
		for _, pos := range subset {
			if pos < 0 || pos >= len(idx.vectors) {
				continue
			}
			hits = append(hits, Hit{Pos: pos, Score: dot(q, idx.vectors[pos])})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Pos < hits[j].Pos
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var norm float64
	for i, x := range v {
		out[i] = float64(x)
		norm += out[i] * out[i]
	}
	if norm == 0 {
		return out
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
