package vector

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// VectorStore implements similarity search over badger-held records. Search
// is a full scan; collection sizes here are thousands of chunks, not millions.
type VectorStore struct {
	db     *VectorDB
	logger arbor.ILogger
	mu     sync.RWMutex
}

// NewVectorStore creates a new vector store instance
func NewVectorStore(db *VectorDB, logger arbor.ILogger) interfaces.VectorStorage {
	return &VectorStore{
		db:     db,
		logger: logger,
	}
}

// AddDocument stores one document with its embedding.
func (s *VectorStore) AddDocument(ctx context.Context, doc *models.VectorDocument, embedding []float32) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID is required")
	}
	if len(embedding) == 0 {
		return fmt.Errorf("document %s has an empty embedding", doc.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	record := newRecord(doc, embedding, time.Now())
	if err := s.db.Store().Upsert(record.ID, record); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}
	return nil
}

// AddDocuments stores a batch; docs and embeddings pair by index.
func (s *VectorStore) AddDocuments(ctx context.Context, docs []*models.VectorDocument, embeddings [][]float32) error {
	if len(docs) != len(embeddings) {
		return fmt.Errorf("document count %d does not match embedding count %d", len(docs), len(embeddings))
	}
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.AddDocument(ctx, doc, embeddings[i]); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("count", len(docs)).Msg("Stored document batch")
	return nil
}

// GetDocument returns the document or nil when absent.
func (s *VectorStore) GetDocument(ctx context.Context, id string) (*models.VectorDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var record VectorRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	return record.toDocument(), nil
}

// GetDocumentsByJobID returns every chunk stored for one job.
func (s *VectorStore) GetDocumentsByJobID(ctx context.Context, jobID string) ([]*models.VectorDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []VectorRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("JobID").Eq(jobID).Index("JobID")); err != nil {
		return nil, fmt.Errorf("failed to find documents for job %s: %w", jobID, err)
	}

	docs := make([]*models.VectorDocument, len(records))
	for i := range records {
		docs[i] = records[i].toDocument()
	}
	return docs, nil
}

// UpdateMetadata merges the given keys into one document's metadata.
// Returns false when the document does not exist. The reserved job_id key
// also refreshes the index column.
func (s *VectorStore) UpdateMetadata(ctx context.Context, id string, metadata map[string]string) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("document id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var record VectorRecord
	if err := s.db.Store().Get(id, &record); err != nil {
		if err == badgerhold.ErrNotFound {
			return false, nil
		}
		return false, fmt.Errorf("failed to get document %s: %w", id, err)
	}

	if record.Metadata == nil {
		record.Metadata = make(map[string]string, len(metadata))
	}
	for key, value := range metadata {
		record.Metadata[key] = value
	}
	if jobID, ok := metadata[models.MetaJobID]; ok {
		record.JobID = jobID
	}
	if docType, ok := metadata[models.MetaDocumentType]; ok {
		record.DocumentType = docType
	}

	if err := s.db.Store().Update(id, &record); err != nil {
		return false, fmt.Errorf("failed to update document %s: %w", id, err)
	}
	return true, nil
}

// DeleteByJobID removes every chunk stored for one job and reports how many.
func (s *VectorStore) DeleteByJobID(ctx context.Context, jobID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []VectorRecord
	if err := s.db.Store().Find(&records, badgerhold.Where("JobID").Eq(jobID).Index("JobID")); err != nil {
		return 0, fmt.Errorf("failed to find documents for job %s: %w", jobID, err)
	}

	deleted := 0
	for i := range records {
		if err := s.db.Store().Delete(records[i].ID, &VectorRecord{}); err != nil {
			if err == badgerhold.ErrNotFound {
				continue
			}
			return deleted, fmt.Errorf("failed to delete document %s: %w", records[i].ID, err)
		}
		deleted++
	}

	if deleted > 0 {
		s.logger.Debug().Str("job_id", jobID).Int("deleted", deleted).Msg("Removed job documents")
	}
	return deleted, nil
}

// SimilaritySearch scores every record against the query embedding and
// returns the top k. Filter entries must all match the record metadata.
// Scores are cosine similarity shifted into [0, 1].
func (s *VectorStore) SimilaritySearch(ctx context.Context, embedding []float32, k int, filter map[string]string) ([]models.ScoredDocument, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []VectorRecord
	if err := s.db.Store().Find(&records, nil); err != nil {
		return nil, fmt.Errorf("failed to scan vector store: %w", err)
	}

	scored := make([]models.ScoredDocument, 0, len(records))
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !matchesFilter(records[i].Metadata, filter) {
			continue
		}
		score := (cosineSimilarity(embedding, records[i].Embedding) + 1) / 2
		scored = append(scored, models.ScoredDocument{
			Document: *records[i].toDocument(),
			Score:    score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored chunks.
func (s *VectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count, err := s.db.Store().Count(&VectorRecord{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(count), nil
}

// Stats describes the collection.
func (s *VectorStore) Stats(ctx context.Context) (*models.VectorStats, error) {
	count, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &models.VectorStats{
		Count: count,
		Name:  s.db.CollectionName(),
		Path:  s.db.Path(),
	}, nil
}

// Backup streams a consistent snapshot to w using Badger's native backup
// format. The returned version can seed a future incremental backup.
func (s *VectorStore) Backup(ctx context.Context, w io.Writer) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, err := s.db.Store().Badger().Backup(w, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to back up vector store: %w", err)
	}
	s.logger.Info().Str("version", strconv.FormatUint(version, 10)).Msg("Vector store backup written")
	return version, nil
}

// Close closes the underlying store.
func (s *VectorStore) Close() error {
	return s.db.Close()
}

// Range bounds on created_at. Values are timestamps in any layout
// VectorDocument.CreatedAt accepts; both bounds are inclusive.
const (
	FilterCreatedAfter  = "created_at_after"
	FilterCreatedBefore = "created_at_before"
)

func matchesFilter(metadata map[string]string, filter map[string]string) bool {
	doc := models.VectorDocument{Metadata: metadata}
	for key, want := range filter {
		switch key {
		case FilterCreatedAfter:
			bound, ok := parseFilterTime(want)
			if !ok {
				return false
			}
			ts, ok := doc.CreatedAt()
			if !ok || ts.Before(bound) {
				return false
			}
		case FilterCreatedBefore:
			bound, ok := parseFilterTime(want)
			if !ok {
				return false
			}
			ts, ok := doc.CreatedAt()
			if !ok || ts.After(bound) {
				return false
			}
		default:
			if metadata[key] != want {
				return false
			}
		}
	}
	return true
}

func parseFilterTime(raw string) (time.Time, bool) {
	probe := models.VectorDocument{Metadata: map[string]string{models.MetaCreatedAt: raw}}
	return probe.CreatedAt()
}

// cosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. Zero-length or mismatched vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
