package embeddings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
)

func TestSelectGeminiModel(t *testing.T) {
	tests := []struct {
		name string
		cfg  common.EmbeddingsConfig
		want string
	}{
		{
			name: "explicit model wins",
			cfg:  common.EmbeddingsConfig{Model: "custom-model", PerformanceLevel: "fast"},
			want: "custom-model",
		},
		{
			name: "chinese optimized pins the multilingual model",
			cfg:  common.EmbeddingsConfig{ChineseOptimized: true, PerformanceLevel: "fast"},
			want: "gemini-embedding-001",
		},
		{
			name: "fast prefers the light model",
			cfg:  common.EmbeddingsConfig{PerformanceLevel: "fast"},
			want: "text-embedding-004",
		},
		{
			name: "balanced prefers the multilingual model",
			cfg:  common.EmbeddingsConfig{PerformanceLevel: "balanced"},
			want: "gemini-embedding-001",
		},
		{
			name: "high prefers the multilingual model",
			cfg:  common.EmbeddingsConfig{PerformanceLevel: "high"},
			want: "gemini-embedding-001",
		},
		{
			name: "unknown level falls back to the default",
			cfg:  common.EmbeddingsConfig{PerformanceLevel: "turbo"},
			want: "gemini-embedding-001",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectGeminiModel(&tt.cfg))
		})
	}
}

func TestNewGeminiEmbedderRequiresAPIKey(t *testing.T) {
	_, err := NewGeminiEmbedder(&common.EmbeddingsConfig{}, arbor.NewLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewGeminiEmbedderDefaults(t *testing.T) {
	cfg := &common.EmbeddingsConfig{
		APIKey:           "test-key",
		PerformanceLevel: "balanced",
		ChineseOptimized: true,
		Dimension:        768,
	}
	e, err := NewGeminiEmbedder(cfg, arbor.NewLogger())
	require.NoError(t, err)

	assert.Equal(t, "gemini-embedding-001", e.ModelName())
	assert.Equal(t, 768, e.Dimension())
	// Zero requests_per_second falls back instead of blocking forever.
	assert.Positive(t, float64(e.limiter.Limit()))
}
