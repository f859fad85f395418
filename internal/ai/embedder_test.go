package ai

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func TestHashingIsDeterministic(t *testing.T) {
	t.Parallel()

	h := NewHashing(64)
	first, err := h.Embed(context.Background(), []string{"Go developer, PostgreSQL", ""})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := NewHashing(64).Embed(context.Background(), []string{"Go developer, PostgreSQL", ""})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical vectors for identical input")
	}
	if len(first) != 2 || len(first[0]) != 64 || len(first[1]) != 64 {
		t.Fatalf("unexpected shape: %d vectors", len(first))
	}
	for _, x := range first[1] {
		if x != 0 {
			t.Fatalf("expected zero vector for empty text")
		}
	}
}

func TestHashingSharedVocabularyIsCloser(t *testing.T) {
	t.Parallel()

	h := NewHashing(DefaultHashingDimensions)
	vectors, err := h.Embed(context.Background(), []string{
		"Senior Go developer. Skills: Go, PostgreSQL, Kubernetes",
		"Go developer with PostgreSQL and Kubernetes",
		"Pastry chef for a French bakery",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	related := cosine(vectors[0], vectors[1])
	unrelated := cosine(vectors[0], vectors[2])
	if related <= unrelated {
		t.Fatalf("expected related texts to be closer: related=%f unrelated=%f", related, unrelated)
	}
}

func TestHashingHonoursCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHashing(8).Embed(ctx, []string{"text"}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestNewHashingDefaultsDimensions(t *testing.T) {
	t.Parallel()

	if got := NewHashing(0).Dimensions(); got != DefaultHashingDimensions {
		t.Fatalf("expected %d dimensions, got %d", DefaultHashingDimensions, got)
	}
}
