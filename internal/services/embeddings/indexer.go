package embeddings

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Indexer embeds documents on the way into the vector store and queries on
// the way out. Reads run concurrently; write batches and pending-job runs
// serialize on one mutex so two schedules never index the same job twice.
type Indexer struct {
	embedder interfaces.EmbeddingService
	store    interfaces.VectorStorage
	jobs     interfaces.JobStorage
	logger   arbor.ILogger
	writeMu  sync.Mutex
}

var _ interfaces.VectorIndex = (*Indexer)(nil)

// NewIndexer creates the vector index service. jobs may be nil when the
// caller only queries; IndexPendingJobs then reports an error.
func NewIndexer(embedder interfaces.EmbeddingService, store interfaces.VectorStorage, jobs interfaces.JobStorage, logger arbor.ILogger) interfaces.VectorIndex {
	return &Indexer{
		embedder: embedder,
		store:    store,
		jobs:     jobs,
		logger:   logger,
	}
}

// AddDocuments stamps created_at and job_id metadata, embeds the page
// contents in one batch, and persists. Documents without an ID get a UUID.
func (s *Indexer) AddDocuments(ctx context.Context, docs []*models.VectorDocument, jobID string) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	now := time.Now().Format(time.RFC3339)
	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]string)
		}
		doc.Metadata[models.MetaCreatedAt] = now
		if jobID != "" {
			doc.Metadata[models.MetaJobID] = jobID
		}
		texts[i] = doc.PageContent
		ids[i] = doc.ID
	}

	embeddings, err := s.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d documents: %w", len(docs), err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.AddDocuments(ctx, docs, embeddings); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(docs)).
		Str("job_id", jobID).
		Msg("Documents indexed")
	return ids, nil
}

// SimilaritySearch returns the k nearest documents to the query.
func (s *Indexer) SimilaritySearch(ctx context.Context, query string, k int, filter map[string]string) ([]*models.VectorDocument, error) {
	scored, err := s.SimilaritySearchWithScore(ctx, query, k, filter)
	if err != nil {
		return nil, err
	}
	docs := make([]*models.VectorDocument, len(scored))
	for i := range scored {
		doc := scored[i].Document
		docs[i] = &doc
	}
	return docs, nil
}

// SimilaritySearchWithScore returns the k nearest documents with scores in
// [0,1]. The score is also attached as search_score metadata so downstream
// scoring can read it off the document.
func (s *Indexer) SimilaritySearchWithScore(ctx context.Context, query string, k int, filter map[string]string) ([]models.ScoredDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}

	embedding, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	scored, err := s.store.SimilaritySearch(ctx, embedding, k, filter)
	if err != nil {
		return nil, err
	}

	for i := range scored {
		if scored[i].Document.Metadata == nil {
			scored[i].Document.Metadata = make(map[string]string)
		}
		scored[i].Document.Metadata[models.MetaSearchScore] = strconv.FormatFloat(scored[i].Score, 'f', 6, 64)
	}
	return scored, nil
}

// DeleteDocuments removes all chunks belonging to a job. Returns whether
// anything was deleted.
func (s *Indexer) DeleteDocuments(ctx context.Context, jobID string) (bool, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deleted, err := s.store.DeleteByJobID(ctx, jobID)
	if err != nil {
		return false, err
	}
	return deleted > 0, nil
}

// UpdateDocumentMetadata merges metadata into one stored document.
func (s *Indexer) UpdateDocumentMetadata(ctx context.Context, docID string, metadata map[string]string) (bool, error) {
	return s.store.UpdateMetadata(ctx, docID, metadata)
}

// CollectionStats reports document count, collection name, and path.
func (s *Indexer) CollectionStats(ctx context.Context) (*models.VectorStats, error) {
	return s.store.Stats(ctx)
}

// Backup writes a snapshot of the collection into dir and returns the
// created file's path.
func (s *Indexer) Backup(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("vectors-%s.backup", time.Now().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create backup file: %w", err)
	}

	if _, err := s.store.Backup(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize backup file: %w", err)
	}

	s.logger.Info().Str("path", path).Msg("Vector collection backed up")
	return path, nil
}

// IndexPendingJobs embeds jobs whose rag_processed flag is still false and
// marks them processed. A job that fails to embed stays unprocessed and is
// retried on the next run; cancellation keeps whatever finished.
func (s *Indexer) IndexPendingJobs(ctx context.Context, batchSize int) (int, error) {
	if s.jobs == nil {
		return 0, fmt.Errorf("job storage is not wired")
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	pending, err := s.jobs.GetUnprocessedJobs(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to load unprocessed jobs: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	indexed := make([]string, 0, len(pending))
	for _, job := range pending {
		if ctx.Err() != nil {
			break
		}
		docs := BuildJobDocuments(job)
		if len(docs) == 0 {
			// Nothing embeddable; mark it so the batch does not revisit.
			indexed = append(indexed, job.Job.JobID)
			continue
		}
		if _, err := s.AddDocuments(ctx, docs, job.Job.JobID); err != nil {
			s.logger.Error().
				Err(err).
				Str("job_id", job.Job.JobID).
				Msg("Failed to index job")
			continue
		}
		indexed = append(indexed, job.Job.JobID)
	}

	if len(indexed) > 0 {
		if err := s.jobs.MarkRAGProcessed(ctx, indexed, true); err != nil {
			return len(indexed), fmt.Errorf("failed to mark jobs processed: %w", err)
		}
	}

	s.logger.Info().
		Int("pending", len(pending)).
		Int("indexed", len(indexed)).
		Msg("Pending job indexing completed")
	return len(indexed), nil
}
