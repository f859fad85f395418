package ai

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// Embedder turns texts into fixed-length vectors. The result has one vector per
// input text, in input order. Empty texts are valid input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

const DefaultHashingDimensions = 256

// Hashing is a deterministic local embedder. Every word and word bigram is
// hashed into a signed bucket, so texts sharing vocabulary point in similar
// directions. It needs no network and is the default provider.
type Hashing struct {
	dims int
}

func NewHashing(dims int) *Hashing {
	if dims <= 0 {
		dims = DefaultHashingDimensions
	}
	return &Hashing{dims: dims}
}

func (h *Hashing) Dimensions() int { return h.dims }

func (h *Hashing) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = h.vector(text)
	}
	return out, nil
}

func (h *Hashing) vector(text string) []float32 {
	v := make([]float32, h.dims)
	tokens := tokenize(text)
	for i, token := range tokens {
		h.add(v, token, 1)
		if i > 0 {
			h.add(v, tokens[i-1]+" "+token, 0.5)
		}
	}
	return v
}

func (h *Hashing) add(v []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	bucket := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}
	v[bucket] += weight
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}
