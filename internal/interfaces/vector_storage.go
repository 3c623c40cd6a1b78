package interfaces

import (
	"context"
	"io"

	"github.com/ternarybob/venari/internal/models"
)

// VectorStorage - interface for embedded vector persistence and similarity search
type VectorStorage interface {
	// Document operations
	AddDocument(ctx context.Context, doc *models.VectorDocument, embedding []float32) error
	AddDocuments(ctx context.Context, docs []*models.VectorDocument, embeddings [][]float32) error
	GetDocument(ctx context.Context, id string) (*models.VectorDocument, error)
	GetDocumentsByJobID(ctx context.Context, jobID string) ([]*models.VectorDocument, error)
	UpdateMetadata(ctx context.Context, id string, metadata map[string]string) (bool, error)
	DeleteByJobID(ctx context.Context, jobID string) (int, error)

	// Search operations
	SimilaritySearch(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]models.ScoredDocument, error)

	// Maintenance
	Count(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*models.VectorStats, error)
	Backup(ctx context.Context, w io.Writer) (uint64, error)
	Close() error
}
