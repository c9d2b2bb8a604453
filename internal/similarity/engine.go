// Package similarity scores the semantic closeness of two text strings via
// embedding cosine similarity.
package similarity

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/hafizadha/mrgreedy/internal/ai"
)

// Engine computes cosine similarity between the embedding vectors of two
// texts. The embedder is assumed deterministic for identical input, so
// identical texts score 1.0 within floating tolerance.
type Engine struct {
	embedder ai.Embedder
}

// NewEngine wraps an embedder.
func NewEngine(embedder ai.Embedder) *Engine {
	return &Engine{embedder: embedder}
}

// Score returns the cosine similarity of the two texts' embeddings.
//
// The empty string is mapped to a fixed zero vector without calling the
// embedding model, so similarity against it is 0, deterministic, and never a
// runtime fault.
func (e *Engine) Score(ctx context.Context, a, b string) (float64, error) {
	va, err := e.embed(ctx, a)
	if err != nil {
		return 0, fmt.Errorf("embed first text: %w", err)
	}
	vb, err := e.embed(ctx, b)
	if err != nil {
		return 0, fmt.Errorf("embed second text: %w", err)
	}
	return Cosine(va, vb), nil
}

func (e *Engine) embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return e.embedder.EmbedText(ctx, text)
}

// Cosine is the dot product of two vectors divided by the product of their
// magnitudes. Zero-magnitude or mismatched-length inputs yield 0 rather than
// NaN so degenerate embeddings stay well-defined.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += a[i] * b[i]
		magA += a[i] * a[i]
		magB += b[i] * b[i]
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}
