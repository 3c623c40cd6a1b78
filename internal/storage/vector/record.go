package vector

import (
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// VectorRecord is the stored form of one embedded document chunk.
type VectorRecord struct {
	ID           string `badgerhold:"key"`
	Content      string
	Embedding    []float32
	Metadata     map[string]string
	JobID        string `badgerholdIndex:"JobID"`
	DocumentType string
	CreatedAt    time.Time
}

// toDocument converts the stored record back to the transport model.
func (r *VectorRecord) toDocument() *models.VectorDocument {
	metadata := make(map[string]string, len(r.Metadata))
	for k, v := range r.Metadata {
		metadata[k] = v
	}
	return &models.VectorDocument{
		ID:          r.ID,
		PageContent: r.Content,
		Metadata:    metadata,
	}
}

// newRecord builds a record from a document and its embedding, stamping
// created_at metadata when the caller did not.
func newRecord(doc *models.VectorDocument, embedding []float32, now time.Time) *VectorRecord {
	metadata := make(map[string]string, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		metadata[k] = v
	}
	if metadata[models.MetaCreatedAt] == "" {
		metadata[models.MetaCreatedAt] = now.Format(time.RFC3339)
	}

	createdAt := now
	if ts, ok := (&models.VectorDocument{Metadata: metadata}).CreatedAt(); ok {
		createdAt = ts
	}

	return &VectorRecord{
		ID:           doc.ID,
		Content:      doc.PageContent,
		Embedding:    embedding,
		Metadata:     metadata,
		JobID:        metadata[models.MetaJobID],
		DocumentType: metadata[models.MetaDocumentType],
		CreatedAt:    createdAt,
	}
}
