package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

const defaultOfflineServerURL = "http://localhost:8081"

// OfflineEmbedder talks to a llama-server instance serving a local model.
// The transport refuses non-loopback addresses, so offline mode can never
// leak text onto the network regardless of configuration.
type OfflineEmbedder struct {
	serverURL string
	model     string
	dimension int
	client    *http.Client
	limiter   *rate.Limiter
	logger    arbor.ILogger
}

var _ interfaces.EmbeddingService = (*OfflineEmbedder)(nil)

type llamaEmbeddingRequest struct {
	Content string `json:"content"`
}

type llamaEmbeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Newer llama-server builds answer with a batch shape even for one input.
type llamaBatchEmbeddingResponse struct {
	Index     int         `json:"index"`
	Embedding [][]float32 `json:"embedding"`
}

// NewOfflineEmbedder creates the local llama-server backend.
func NewOfflineEmbedder(cfg *common.EmbeddingsConfig, logger arbor.ILogger) (*OfflineEmbedder, error) {
	serverURL := strings.TrimRight(cfg.OfflineServerURL, "/")
	if serverURL == "" {
		serverURL = defaultOfflineServerURL
	}

	model := filepath.Base(cfg.LocalModelPath)
	if model == "." || model == "/" || model == "" {
		model = "llama-server"
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	e := &OfflineEmbedder{
		serverURL: serverURL,
		model:     model,
		dimension: cfg.Dimension,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: localOnlyDial,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger,
	}

	logger.Info().
		Str("server_url", serverURL).
		Str("model", model).
		Msg("Offline embedder initialized")

	return e, nil
}

// localOnlyDial rejects any address that does not resolve to loopback.
func localOnlyDial(ctx context.Context, network, addr string) (net.Conn, error) {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	if host != "127.0.0.1" && host != "localhost" && host != "::1" {
		return nil, fmt.Errorf("offline embedder refuses non-localhost address: %s", addr)
	}
	return (&net.Dialer{}).DialContext(ctx, network, addr)
}

// EmbedText generates one embedding via POST /embedding.
func (e *OfflineEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(llamaEmbeddingRequest{Content: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.serverURL+"/embedding", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llama-server request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("llama-server returned status %d: %s", resp.StatusCode, string(body))
	}

	embedding, err := decodeLlamaEmbedding(body)
	if err != nil {
		preview := body
		if len(preview) > 200 {
			preview = preview[:200]
		}
		e.logger.Error().
			Err(err).
			Str("response_preview", string(preview)).
			Msg("Unrecognized embedding response")
		return nil, err
	}

	if e.dimension > 0 && len(embedding) != e.dimension {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.dimension, len(embedding))
	}
	return embedding, nil
}

// decodeLlamaEmbedding accepts the three response shapes llama-server has
// shipped: {"embedding":[...]}, a bare array, and the batch form
// [{"index":0,"embedding":[[...]]}].
func decodeLlamaEmbedding(body []byte) ([]float32, error) {
	var obj llamaEmbeddingResponse
	if err := json.Unmarshal(body, &obj); err == nil && len(obj.Embedding) > 0 {
		return obj.Embedding, nil
	}

	var flat []float32
	if err := json.Unmarshal(body, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}

	var batch []llamaBatchEmbeddingResponse
	if err := json.Unmarshal(body, &batch); err == nil && len(batch) > 0 {
		if len(batch[0].Embedding) > 0 && len(batch[0].Embedding[0]) > 0 {
			return batch[0].Embedding[0], nil
		}
		return nil, fmt.Errorf("batch embedding response has an empty vector")
	}

	return nil, fmt.Errorf("failed to parse embedding response")
}

// EmbedTexts embeds a batch sequentially. llama-server processes one content
// per request, so the batch call is a loop under the shared rate limiter.
func (e *OfflineEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.EmbedText(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d of %d: %w", i+1, len(texts), err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// EmbedQuery embeds a search query.
func (e *OfflineEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return e.EmbedText(ctx, query)
}

// ModelName returns the local model's directory name.
func (e *OfflineEmbedder) ModelName() string { return e.model }

// Dimension returns the configured output dimensionality.
func (e *OfflineEmbedder) Dimension() int { return e.dimension }

// IsAvailable checks the llama-server health endpoint.
func (e *OfflineEmbedder) IsAvailable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, e.serverURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug().Err(err).Msg("llama-server health probe failed")
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
