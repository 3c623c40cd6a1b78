package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// VectorIndex is the embedding-aware surface over VectorStorage: text goes
// in and comes out embedded, callers never touch raw vectors.
type VectorIndex interface {
	// AddDocuments stamps created_at and job_id metadata, embeds the page
	// contents, and persists. Returns the stored document IDs.
	AddDocuments(ctx context.Context, docs []*models.VectorDocument, jobID string) ([]string, error)

	// Query operations. WithScore attaches the similarity as search_score
	// metadata on each returned document.
	SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]*models.VectorDocument, error)
	SimilaritySearchWithScore(ctx context.Context, query string, k int, filter map[string]string) ([]models.ScoredDocument, error)

	// Maintenance
	DeleteDocuments(ctx context.Context, jobID string) (bool, error)
	UpdateDocumentMetadata(ctx context.Context, docID string, metadata map[string]string) (bool, error)
	CollectionStats(ctx context.Context) (*models.VectorStats, error)
	Backup(ctx context.Context, dir string) (string, error)

	// IndexPendingJobs embeds stored jobs whose rag_processed flag is still
	// false and marks them processed. Returns the number of jobs indexed.
	IndexPendingJobs(ctx context.Context, batchSize int) (int, error)
}
