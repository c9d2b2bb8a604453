package gemini

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(context.Background(), "  ", "", "")
	assert.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key", "", "")
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.Model())
	assert.Equal(t, defaultEmbeddingModel, c.embeddingModel)
}

func TestGenerateContent_EmptyPrompt(t *testing.T) {
	c, err := NewClient(context.Background(), "test-key", "", "")
	require.NoError(t, err)

	_, err = c.GenerateContent(context.Background(), "   ")
	assert.Error(t, err)
}

func TestGenerateContent_NilClient(t *testing.T) {
	var c *Client
	_, err := c.GenerateContent(context.Background(), "prompt")
	assert.Error(t, err)
}
