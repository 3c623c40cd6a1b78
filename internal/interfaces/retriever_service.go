package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// RetrieverService re-ranks vector search results by document age. An empty
// strategy uses the configured default.
type RetrieverService interface {
	Search(ctx context.Context, query string, k int, filters map[string]string, strategy string) ([]models.ScoredDocument, error)
}
