// Package gemini wraps the Google GenAI client for text generation and
// embeddings.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hafizadha/mrgreedy/internal/metrics"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
)

// Client provides prompt-based generation and text embeddings on top of the
// Gemini API. Construct once at process start and share; the underlying
// client is safe for concurrent use.
type Client struct {
	client         *genai.Client
	modelName      string
	embeddingModel string
}

// NewClient creates a Client configured for the Gemini API backend.
func NewClient(ctx context.Context, apiKey, model, embeddingModel string) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}
	if embeddingModel = strings.TrimSpace(embeddingModel); embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	return &Client{client: client, modelName: model, embeddingModel: embeddingModel}, nil
}

// GenerateContent sends the prompt to Gemini and returns the concatenated
// textual response.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", errors.New("gemini client is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.modelName, genai.Text(prompt), nil)
	if err != nil {
		metrics.RecordLLMRequest("generate", "error")
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		metrics.RecordLLMRequest("generate", "empty")
		return "", errors.New("gemini api returned empty response")
	}

	metrics.RecordLLMRequest("generate", "ok")
	return output, nil
}

// EmbedText returns the embedding vector for the given text.
func (c *Client) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("gemini client is not initialized")
	}

	metrics.RecordEmbeddingRequest()

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}

	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini api returned empty embedding")
	}

	values := resp.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = float64(v)
	}
	return vector, nil
}

// Model reports the generation model in use.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.modelName
}
