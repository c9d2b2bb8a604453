package similarity

import (
	"context"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder derives a deterministic vector from the text so identical
// inputs always embed identically.
type hashEmbedder struct {
	calls int
}

func (h *hashEmbedder) EmbedText(_ context.Context, text string) ([]float64, error) {
	h.calls++
	sum := sha256.Sum256([]byte(text))
	vector := make([]float64, 8)
	for i := range vector {
		vector[i] = float64(sum[i]) + 1 // strictly positive, non-zero magnitude
	}
	return vector, nil
}

func TestScore_IdenticalTextIsOne(t *testing.T) {
	engine := NewEngine(&hashEmbedder{})

	score, err := engine.Score(context.Background(), "5 years Python experience", "5 years Python experience")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, score, 1e-9)
}

func TestScore_EmptyTextIsDefined(t *testing.T) {
	embedder := &hashEmbedder{}
	engine := NewEngine(embedder)

	score, err := engine.Score(context.Background(), "", "some requirement")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	score, err = engine.Score(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)

	// The embedding model is never consulted for empty input.
	assert.Equal(t, 1, embedder.calls)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{1, 2, 3}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}))
	assert.Equal(t, 0.0, Cosine(nil, []float64{1}))
	assert.Equal(t, 0.0, Cosine([]float64{1, 2}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}))
}
