package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

const defaultGeminiModel = "gemini-embedding-001"

// Ranked candidates per performance level. gemini-embedding-001 carries the
// multilingual training mix and is the only acceptable choice for Chinese
// job text; text-embedding-004 is cheaper but English-leaning.
var geminiModelRanking = map[string][]string{
	"fast":     {"text-embedding-004", defaultGeminiModel},
	"balanced": {defaultGeminiModel, "text-embedding-004"},
	"high":     {defaultGeminiModel},
}

// GeminiEmbedder generates embeddings through the Gemini API.
type GeminiEmbedder struct {
	client    *genai.Client
	model     string
	dimension int
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

var _ interfaces.EmbeddingService = (*GeminiEmbedder)(nil)

// NewGeminiEmbedder creates the cloud embedding backend. The client is lazy;
// no network traffic happens until the first embed call.
func NewGeminiEmbedder(cfg *common.EmbeddingsConfig, logger arbor.ILogger) (*GeminiEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY or rag_system.vector_db.embeddings.api_key)")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	model := selectGeminiModel(cfg)
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	e := &GeminiEmbedder{
		client:    client,
		model:     model,
		dimension: cfg.Dimension,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		logger:    logger,
	}

	logger.Info().
		Str("model", model).
		Int("dimension", cfg.Dimension).
		Float64("requests_per_second", rps).
		Msg("Gemini embedder initialized")

	return e, nil
}

// selectGeminiModel resolves the model name: an explicit config value wins,
// the Chinese-optimized flag pins the multilingual model, otherwise the
// ranked list for the configured performance level decides.
func selectGeminiModel(cfg *common.EmbeddingsConfig) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if cfg.ChineseOptimized {
		return defaultGeminiModel
	}
	if ranked, ok := geminiModelRanking[cfg.PerformanceLevel]; ok && len(ranked) > 0 {
		return ranked[0]
	}
	return defaultGeminiModel
}

// EmbedText generates one embedding vector.
func (e *GeminiEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	vectors, err := e.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts generates embeddings for a batch in a single API call.
func (e *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts)
}

// EmbedQuery embeds a search query. Queries take the same path as documents;
// the model handles asymmetric retrieval without a separate task type.
func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.EmbedText(ctx, query)
}

func (e *GeminiEmbedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	var config *genai.EmbedContentConfig
	if e.dimension > 0 {
		outputDim := int32(e.dimension)
		config = &genai.EmbedContentConfig{OutputDimensionality: &outputDim}
	}

	start := time.Now()
	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}

	got := 0
	if result != nil {
		got = len(result.Embeddings)
	}
	if got != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), got)
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, fmt.Errorf("no embedding returned for text %d", i)
		}
		if e.dimension > 0 && len(emb.Values) != e.dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(emb.Values))
		}
		vectors[i] = emb.Values
	}

	e.logger.Debug().
		Int("count", len(texts)).
		Dur("duration", time.Since(start)).
		Msg("Embeddings generated")

	return vectors, nil
}

// ModelName returns the resolved embedding model.
func (e *GeminiEmbedder) ModelName() string { return e.model }

// Dimension returns the configured output dimensionality.
func (e *GeminiEmbedder) Dimension() int { return e.dimension }

// IsAvailable probes the API with a short embedding request.
func (e *GeminiEmbedder) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	vec, err := e.EmbedText(probeCtx, "健康检查")
	if err != nil {
		e.logger.Warn().Err(err).Msg("Gemini embedding probe failed")
		return false
	}
	return len(vec) > 0
}
