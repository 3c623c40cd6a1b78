package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/fingerprint"
	"github.com/ternarybob/venari/internal/models"
)

// setupTestDB creates a test database and returns cleanup function
func setupTestDB(t *testing.T) (*SQLiteDB, func()) {
	t.Helper()

	config := &common.DatabaseConfig{
		Path:          t.TempDir() + "/test.db",
		CacheSizeMB:   10,
		BusyTimeoutMS: 5000,
		WALMode:       false,
	}

	logger := arbor.NewLogger()
	db, err := NewSQLiteDB(logger, config)
	require.NoError(t, err)

	return db, func() { db.Close() }
}

func newTestJob(title, company string) *models.Job {
	job := models.NewJob(title, company, "https://jobs.example.com/"+title, "example")
	job.Fingerprint = fingerprint.Fingerprint(title, company, "20k-30k", "深圳")
	return job
}

func TestSaveJobDeduplicatesByFingerprint(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := newTestJob("Go开发工程师", "深圳科技有限公司")
	inserted, err := storage.SaveJob(ctx, job)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same content crawled again under a different listing id.
	dup := newTestJob("Go开发工程师", "深圳科技有限公司")
	dup.JobID = "job_different_id"
	inserted, err = storage.SaveJob(ctx, dup)
	require.NoError(t, err)
	assert.False(t, inserted, "identical fingerprint should not insert")

	count, err := storage.CountJobs(ctx, models.JobQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSaveJobRejectsMissingFingerprint(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())

	job := models.NewJob("Title", "Company", "https://example.com/1", "example")
	_, err := storage.SaveJob(context.Background(), job)
	assert.Error(t, err)
}

func TestSaveJobsSecondRunAllDuplicates(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	batch := make([]*models.Job, 0, 5)
	for i := 0; i < 5; i++ {
		job := newTestJob(fmt.Sprintf("后端工程师%d", i), "示例公司")
		batch = append(batch, job)
	}

	inserted, duplicates, err := storage.SaveJobs(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 5, inserted)
	assert.Equal(t, 0, duplicates)

	// Re-running the identical batch must insert nothing.
	inserted, duplicates, err = storage.SaveJobs(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Equal(t, 5, duplicates)

	count, err := storage.CountJobs(ctx, models.JobQuery{})
	require.NoError(t, err)
	assert.Equal(t, 5, count)
}

func TestBatchCheckFingerprints(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	known := newTestJob("已存职位", "某公司")
	_, err := storage.SaveJob(ctx, known)
	require.NoError(t, err)

	unknownFP := fingerprint.Fingerprint("新职位", "新公司", "", "")
	result, err := storage.BatchCheckFingerprints(ctx, []string{known.Fingerprint, unknownFP})
	require.NoError(t, err)

	assert.True(t, result[known.Fingerprint])
	assert.False(t, result[unknownFP])

	empty, err := storage.BatchCheckFingerprints(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateJobStatusStampsSubmittedAt(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := newTestJob("测试职位", "测试公司")
	_, err := storage.SaveJob(ctx, job)
	require.NoError(t, err)

	require.NoError(t, storage.UpdateJobStatus(ctx, job.JobID, models.StatusSubmitted))

	stored, err := storage.GetJob(ctx, job.JobID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, models.StatusSubmitted, stored.ApplicationStatus)
	require.NotNil(t, stored.SubmittedAt)
	assert.WithinDuration(t, time.Now(), *stored.SubmittedAt, 5*time.Second)

	// Updating an unknown job reports the miss.
	assert.Error(t, storage.UpdateJobStatus(ctx, "job_missing", models.StatusSkipped))
}

func TestJobDetailRoundTrip(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := newTestJob("数据工程师", "数据公司")
	_, err := storage.SaveJob(ctx, job)
	require.NoError(t, err)

	detail := &models.JobDetail{
		JobID:       job.JobID,
		Salary:      "25k-35k",
		Location:    "深圳·南山区",
		Experience:  "3-5年",
		Education:   "本科",
		Description: "负责数据管道的设计与维护，要求熟悉分布式系统。",
		Keyword:     "数据工程",
	}
	require.NoError(t, storage.SaveJobDetail(ctx, detail))

	got, err := storage.GetJobDetail(ctx, job.JobID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "25k-35k", got.Salary)
	assert.False(t, got.ExtractedAt.IsZero())

	// Upsert replaces the previous record.
	detail.Salary = "30k-40k"
	require.NoError(t, storage.SaveJobDetail(ctx, detail))
	got, err = storage.GetJobDetail(ctx, job.JobID)
	require.NoError(t, err)
	assert.Equal(t, "30k-40k", got.Salary)

	missing, err := storage.GetJobDetail(ctx, "job_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQueryJobsFilters(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	a := newTestJob("Go开发", "公司甲")
	b := newTestJob("Java开发", "公司乙")
	b.Website = "other"
	c := newTestJob("Go架构师", "公司丙")

	for _, job := range []*models.Job{a, b, c} {
		_, err := storage.SaveJob(ctx, job)
		require.NoError(t, err)
	}
	require.NoError(t, storage.SoftDeleteJob(ctx, c.JobID))

	jobs, err := storage.QueryJobs(ctx, models.JobQuery{Keyword: "Go"})
	require.NoError(t, err)
	require.Len(t, jobs, 1, "soft-deleted jobs stay hidden")
	assert.Equal(t, a.JobID, jobs[0].JobID)

	jobs, err = storage.QueryJobs(ctx, models.JobQuery{Keyword: "Go", IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = storage.QueryJobs(ctx, models.JobQuery{Website: "other"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, b.JobID, jobs[0].JobID)
}

func TestUnprocessedJobsHandoff(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	withDetail := newTestJob("有详情职位", "公司甲")
	bare := newTestJob("无详情职位", "公司乙")
	for _, job := range []*models.Job{withDetail, bare} {
		_, err := storage.SaveJob(ctx, job)
		require.NoError(t, err)
	}
	require.NoError(t, storage.SaveJobDetail(ctx, &models.JobDetail{
		JobID:       withDetail.JobID,
		Description: "详情内容",
	}))

	pending, err := storage.GetUnprocessedJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	byID := map[string]*models.JobWithDetail{}
	for _, item := range pending {
		byID[item.Job.JobID] = item
	}
	require.NotNil(t, byID[withDetail.JobID].Detail)
	assert.Equal(t, "详情内容", byID[withDetail.JobID].Detail.Description)
	assert.Nil(t, byID[bare.JobID].Detail)

	require.NoError(t, storage.MarkRAGProcessed(ctx, []string{withDetail.JobID}, true))

	pending, err = storage.GetUnprocessedJobs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, bare.JobID, pending[0].Job.JobID)
}

func TestGetDeduplicationStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	stats, err := storage.GetDeduplicationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalJobs)
	assert.Equal(t, 0.0, stats.DuplicateRate)

	for i := 0; i < 3; i++ {
		job := newTestJob(fmt.Sprintf("职位%d", i), "公司")
		_, err := storage.SaveJob(ctx, job)
		require.NoError(t, err)
	}

	stats, err = storage.GetDeduplicationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalJobs)
	assert.Equal(t, 3, stats.UniqueFingerprints)
	assert.Equal(t, 0, stats.DuplicateCount)
}

func TestClearAll(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewJobStorage(db, arbor.NewLogger())
	ctx := context.Background()

	job := newTestJob("临时职位", "临时公司")
	_, err := storage.SaveJob(ctx, job)
	require.NoError(t, err)
	require.NoError(t, storage.SaveJobDetail(ctx, &models.JobDetail{JobID: job.JobID}))

	require.NoError(t, storage.ClearAll(ctx))

	count, err := storage.CountJobs(ctx, models.JobQuery{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
