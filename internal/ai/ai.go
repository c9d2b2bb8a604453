// Package ai declares the model-facing contracts used by the parser, the
// similarity engine, and the chat endpoint.
package ai

import "context"

// Generator produces free text from a prompt.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Embedder maps text to an embedding vector. Implementations must be
// deterministic for identical input.
type Embedder interface {
	EmbedText(ctx context.Context, text string) ([]float64, error)
}
