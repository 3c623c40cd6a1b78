package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// JobStorage - interface for job persistence and deduplication
type JobStorage interface {
	// Job operations
	SaveJob(ctx context.Context, job *models.Job) (bool, error)
	SaveJobs(ctx context.Context, jobs []*models.Job) (inserted int, duplicates int, err error)
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
	GetJobByFingerprint(ctx context.Context, fingerprint string) (*models.Job, error)
	UpdateJobStatus(ctx context.Context, jobID string, status string) error
	UpdateJobDetailURL(ctx context.Context, jobID string, detailURL string) error
	SoftDeleteJob(ctx context.Context, jobID string) error
	CountJobs(ctx context.Context, query models.JobQuery) (int, error)
	QueryJobs(ctx context.Context, query models.JobQuery) ([]*models.Job, error)

	// Fingerprint operations
	BatchCheckFingerprints(ctx context.Context, fingerprints []string) (map[string]bool, error)
	GetDeduplicationStats(ctx context.Context) (*models.DedupStats, error)

	// Detail operations
	SaveJobDetail(ctx context.Context, detail *models.JobDetail) error
	GetJobDetail(ctx context.Context, jobID string) (*models.JobDetail, error)
	GetJobWithDetail(ctx context.Context, jobID string) (*models.JobWithDetail, error)

	// GetJobsNeedingRefresh returns live jobs with a known URL whose detail
	// row is missing, description-less, or extracted before staleBefore.
	GetJobsNeedingRefresh(ctx context.Context, staleBefore time.Time, limit int) ([]*models.Job, error)

	// Embedding handoff
	GetUnprocessedJobs(ctx context.Context, limit int) ([]*models.JobWithDetail, error)
	MarkRAGProcessed(ctx context.Context, jobIDs []string, processed bool) error

	// GetUnmatchedProcessedJobs returns embedded jobs that have no stored
	// match row for the profile, for monitor auto-repair.
	GetUnmatchedProcessedJobs(ctx context.Context, profileID string, limit int) ([]*models.Job, error)

	// Bulk operations
	ClearAll(ctx context.Context) error
	Close() error
}

// MatchStorage - interface for persisted match results
type MatchStorage interface {
	SaveMatch(ctx context.Context, match *models.ResumeMatch) error
	SaveMatches(ctx context.Context, matches []*models.ResumeMatch) (int, error)
	GetMatchesForJob(ctx context.Context, jobID string) ([]*models.ResumeMatch, error)
	GetTopMatches(ctx context.Context, profileID string, limit int) ([]*models.ResumeMatch, error)
	GetMatchStats(ctx context.Context, profileID string) (*models.MatchStats, error)

	// GetGlobalStats aggregates across every profile, for health snapshots.
	GetGlobalStats(ctx context.Context) (*models.MatchStats, error)

	DeleteMatchesForProfile(ctx context.Context, profileID string) error
}
