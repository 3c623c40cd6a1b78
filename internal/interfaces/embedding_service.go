package interfaces

import "context"

// EmbeddingService generates vector embeddings
type EmbeddingService interface {
	// Generate embedding for raw text
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// Generate embeddings for multiple texts in one pass
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)

	// Generate query embedding (may use a different task prompt than documents)
	EmbedQuery(ctx context.Context, query string) ([]float32, error)

	// Get model information
	ModelName() string
	Dimension() int

	// Check if the backend is reachable
	IsAvailable(ctx context.Context) bool
}
