package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
)

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(&common.LLMConfig{}, arbor.NewLogger())
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(&common.LLMConfig{AnthropicAPIKey: "sk-test"}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, defaultModel, client.ModelName())
	assert.True(t, client.IsAvailable(context.Background()))
}

func TestNewClientHonorsOverrides(t *testing.T) {
	client, err := NewClient(&common.LLMConfig{
		AnthropicAPIKey: "sk-test",
		Model:           "claude-opus-4-1",
		MaxTokens:       1024,
	}, arbor.NewLogger())
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-1", client.ModelName())
	assert.EqualValues(t, 1024, client.maxTokens)
}
