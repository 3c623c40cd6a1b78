package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// batchChunkSize keeps IN clauses under the SQLite bound-parameter limit.
const batchChunkSize = 500

const jobColumns = `job_id, title, company, url, website, fingerprint,
	application_status, match_score, created_at, submitted_at, is_deleted, rag_processed`

// JobStorage implements SQLite persistence for captured jobs
type JobStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewJobStorage creates a new job storage instance
func NewJobStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.JobStorage {
	return &JobStorage{
		db:     db,
		logger: logger,
	}
}

// SaveJob inserts a job unless its fingerprint or id is already stored.
// Returns true when a new row was written.
func (s *JobStorage) SaveJob(ctx context.Context, job *models.Job) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, err := insertJobTx(ctx, tx, job)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit job: %w", err)
	}
	return inserted, nil
}

// SaveJobs inserts a batch inside one transaction and reports how many rows
// were new versus fingerprint duplicates.
func (s *JobStorage) SaveJobs(ctx context.Context, jobs []*models.Job) (int, int, error) {
	if len(jobs) == 0 {
		return 0, 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	inserted, duplicates := 0, 0
	for _, job := range jobs {
		ok, err := insertJobTx(ctx, tx, job)
		if err != nil {
			return 0, 0, err
		}
		if ok {
			inserted++
		} else {
			duplicates++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("failed to commit jobs: %w", err)
	}

	s.logger.Info().
		Int("total", len(jobs)).
		Int("inserted", inserted).
		Int("duplicates", duplicates).
		Msg("Saved job batch")
	return inserted, duplicates, nil
}

func insertJobTx(ctx context.Context, tx *sql.Tx, job *models.Job) (bool, error) {
	if job.Fingerprint == "" {
		return false, fmt.Errorf("job %s has no fingerprint", job.JobID)
	}

	var existing string
	err := tx.QueryRowContext(ctx,
		"SELECT job_id FROM jobs WHERE fingerprint = ? LIMIT 1", job.Fingerprint).Scan(&existing)
	switch {
	case err == nil:
		return false, nil
	case err != sql.ErrNoRows:
		return false, fmt.Errorf("failed to check fingerprint: %w", err)
	}

	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var submittedAt sql.NullInt64
	if job.SubmittedAt != nil {
		submittedAt = sql.NullInt64{Int64: job.SubmittedAt.Unix(), Valid: true}
	}
	var matchScore sql.NullFloat64
	if job.MatchScore != nil {
		matchScore = sql.NullFloat64{Float64: *job.MatchScore, Valid: true}
	}

	status := job.ApplicationStatus
	if status == "" {
		status = models.StatusPending
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO NOTHING`,
		job.JobID, job.Title, job.Company, job.URL, job.Website, job.Fingerprint,
		status, matchScore, createdAt.Unix(), submittedAt,
		boolToInt(job.IsDeleted), boolToInt(job.RAGProcessed))
	if err != nil {
		return false, fmt.Errorf("failed to insert job %s: %w", job.JobID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetJob returns the job or nil when absent.
func (s *JobStorage) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	row := s.db.DB().QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE job_id = ?", jobID)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return job, nil
}

// GetJobByFingerprint returns the first job carrying the fingerprint, or nil.
func (s *JobStorage) GetJobByFingerprint(ctx context.Context, fingerprint string) (*models.Job, error) {
	row := s.db.DB().QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM jobs WHERE fingerprint = ? LIMIT 1", fingerprint)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job by fingerprint: %w", err)
	}
	return job, nil
}

// UpdateJobStatus sets the application status; moving to submitted stamps
// submitted_at once.
func (s *JobStorage) UpdateJobStatus(ctx context.Context, jobID string, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result sql.Result
	var err error
	if status == models.StatusSubmitted {
		result, err = s.db.DB().ExecContext(ctx,
			"UPDATE jobs SET application_status = ?, submitted_at = COALESCE(submitted_at, ?) WHERE job_id = ?",
			status, time.Now().Unix(), jobID)
	} else {
		result, err = s.db.DB().ExecContext(ctx,
			"UPDATE jobs SET application_status = ? WHERE job_id = ?", status, jobID)
	}
	if err != nil {
		return fmt.Errorf("failed to update status for %s: %w", jobID, err)
	}
	return requireRow(result, jobID)
}

// UpdateJobDetailURL records the real detail URL discovered on click-through.
func (s *JobStorage) UpdateJobDetailURL(ctx context.Context, jobID string, detailURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.DB().ExecContext(ctx,
		"UPDATE jobs SET url = ? WHERE job_id = ?", detailURL, jobID)
	if err != nil {
		return fmt.Errorf("failed to update detail URL for %s: %w", jobID, err)
	}
	return requireRow(result, jobID)
}

// SoftDeleteJob hides the job from queries without losing its fingerprint.
func (s *JobStorage) SoftDeleteJob(ctx context.Context, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.DB().ExecContext(ctx,
		"UPDATE jobs SET is_deleted = 1 WHERE job_id = ?", jobID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete %s: %w", jobID, err)
	}
	return requireRow(result, jobID)
}

// CountJobs counts jobs matching the query filters.
func (s *JobStorage) CountJobs(ctx context.Context, query models.JobQuery) (int, error) {
	where, args := buildJobWhere(query)
	var count int
	err := s.db.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM jobs "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	return count, nil
}

// QueryJobs returns jobs matching the filters, newest first.
func (s *JobStorage) QueryJobs(ctx context.Context, query models.JobQuery) ([]*models.Job, error) {
	where, args := buildJobWhere(query)
	sqlQuery := "SELECT " + jobColumns + " FROM jobs " + where + " ORDER BY created_at DESC"
	if query.Limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", query.Limit)
	}

	rows, err := s.db.DB().QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// BatchCheckFingerprints reports which of the given fingerprints already
// exist, in chunks that respect the bound-parameter limit.
func (s *JobStorage) BatchCheckFingerprints(ctx context.Context, fingerprints []string) (map[string]bool, error) {
	known := make(map[string]bool, len(fingerprints))
	if len(fingerprints) == 0 {
		return known, nil
	}
	for _, fp := range fingerprints {
		known[fp] = false
	}

	unique := make([]string, 0, len(known))
	for fp := range known {
		unique = append(unique, fp)
	}

	for start := 0; start < len(unique); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(unique) {
			end = len(unique)
		}
		chunk := unique[start:end]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]interface{}, len(chunk))
		for i, fp := range chunk {
			args[i] = fp
		}

		rows, err := s.db.DB().QueryContext(ctx,
			"SELECT DISTINCT fingerprint FROM jobs WHERE fingerprint IN ("+placeholders+")", args...)
		if err != nil {
			return nil, fmt.Errorf("failed to check fingerprints: %w", err)
		}
		for rows.Next() {
			var fp string
			if err := rows.Scan(&fp); err != nil {
				rows.Close()
				return nil, err
			}
			known[fp] = true
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}
	return known, nil
}

// GetDeduplicationStats reports fingerprint coverage over live jobs.
func (s *JobStorage) GetDeduplicationStats(ctx context.Context) (*models.DedupStats, error) {
	var total, uniqueFPs int
	err := s.db.DB().QueryRowContext(ctx,
		"SELECT COUNT(*), COUNT(DISTINCT fingerprint) FROM jobs WHERE is_deleted = 0").
		Scan(&total, &uniqueFPs)
	if err != nil {
		return nil, fmt.Errorf("failed to compute dedup stats: %w", err)
	}

	stats := &models.DedupStats{
		TotalJobs:          total,
		UniqueFingerprints: uniqueFPs,
		DuplicateCount:     total - uniqueFPs,
	}
	if total > 0 {
		stats.DuplicateRate = float64(stats.DuplicateCount) / float64(total)
	}
	return stats, nil
}

// SaveJobDetail upserts the detail record for a job.
func (s *JobStorage) SaveJobDetail(ctx context.Context, detail *models.JobDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	extractedAt := detail.ExtractedAt
	if extractedAt.IsZero() {
		extractedAt = time.Now()
	}

	_, err := s.db.DB().ExecContext(ctx, `
		INSERT INTO job_details (
			job_id, salary, location, experience, education, description,
			requirements, benefits, publish_time, company_scale, industry,
			keyword, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			salary = excluded.salary,
			location = excluded.location,
			experience = excluded.experience,
			education = excluded.education,
			description = excluded.description,
			requirements = excluded.requirements,
			benefits = excluded.benefits,
			publish_time = excluded.publish_time,
			company_scale = excluded.company_scale,
			industry = excluded.industry,
			keyword = excluded.keyword,
			extracted_at = excluded.extracted_at`,
		detail.JobID, detail.Salary, detail.Location, detail.Experience,
		detail.Education, detail.Description, detail.Requirements, detail.Benefits,
		detail.PublishTime, detail.CompanyScale, detail.Industry, detail.Keyword,
		extractedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save detail for %s: %w", detail.JobID, err)
	}
	return nil
}

// GetJobDetail returns the detail record or nil when absent.
func (s *JobStorage) GetJobDetail(ctx context.Context, jobID string) (*models.JobDetail, error) {
	row := s.db.DB().QueryRowContext(ctx, `
		SELECT job_id, salary, location, experience, education, description,
			requirements, benefits, publish_time, company_scale, industry,
			keyword, extracted_at
		FROM job_details WHERE job_id = ?`, jobID)

	detail, err := scanJobDetail(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get detail for %s: %w", jobID, err)
	}
	return detail, nil
}

// GetJobWithDetail returns the job joined with its detail; nil when the job
// is absent, Detail nil when only the listing was captured.
func (s *JobStorage) GetJobWithDetail(ctx context.Context, jobID string) (*models.JobWithDetail, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil || job == nil {
		return nil, err
	}
	detail, err := s.GetJobDetail(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return &models.JobWithDetail{Job: job, Detail: detail}, nil
}

// GetJobsNeedingRefresh returns live jobs with a known URL whose detail row
// is missing, description-less, or older than staleBefore. Oldest capture
// first so long-neglected rows are revisited before recent ones.
func (s *JobStorage) GetJobsNeedingRefresh(ctx context.Context, staleBefore time.Time, limit int) ([]*models.Job, error) {
	sqlQuery := `
		SELECT ` + prefixColumns("j", jobColumns) + `
		FROM jobs j
		LEFT JOIN job_details d ON d.job_id = j.job_id
		WHERE j.is_deleted = 0 AND j.url != ''
			AND (d.job_id IS NULL OR d.description = '' OR d.extracted_at < ?)
		ORDER BY j.created_at ASC`
	if limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.DB().QueryContext(ctx, sqlQuery, staleBefore.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query refresh candidates: %w", err)
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// GetUnprocessedJobs returns live jobs not yet handed to the vector store,
// oldest first so backlog drains in capture order.
func (s *JobStorage) GetUnprocessedJobs(ctx context.Context, limit int) ([]*models.JobWithDetail, error) {
	sqlQuery := `
		SELECT ` + prefixColumns("j", jobColumns) + `,
			d.job_id, d.salary, d.location, d.experience, d.education, d.description,
			d.requirements, d.benefits, d.publish_time, d.company_scale, d.industry,
			d.keyword, d.extracted_at
		FROM jobs j
		LEFT JOIN job_details d ON d.job_id = j.job_id
		WHERE j.rag_processed = 0 AND j.is_deleted = 0
		ORDER BY j.created_at ASC`
	if limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.DB().QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to query unprocessed jobs: %w", err)
	}
	defer rows.Close()

	var out []*models.JobWithDetail
	for rows.Next() {
		item, err := scanJobWithDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

// GetUnmatchedProcessedJobs returns embedded jobs the profile has never been
// scored against, oldest first. The monitor re-matches these during repair.
func (s *JobStorage) GetUnmatchedProcessedJobs(ctx context.Context, profileID string, limit int) ([]*models.Job, error) {
	sqlQuery := `
		SELECT ` + prefixColumns("j", jobColumns) + `
		FROM jobs j
		LEFT JOIN resume_matches m
			ON m.job_id = j.job_id AND m.resume_profile_id = ?
		WHERE j.rag_processed = 1 AND j.is_deleted = 0 AND m.job_id IS NULL
		ORDER BY j.created_at ASC`
	if limit > 0 {
		sqlQuery += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.db.DB().QueryContext(ctx, sqlQuery, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to query unmatched jobs: %w", err)
	}
	defer rows.Close()

	var out []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

// MarkRAGProcessed flips the embedding handoff flag for a set of jobs.
func (s *JobStorage) MarkRAGProcessed(ctx context.Context, jobIDs []string, processed bool) error {
	if len(jobIDs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for start := 0; start < len(jobIDs); start += batchChunkSize {
		end := start + batchChunkSize
		if end > len(jobIDs) {
			end = len(jobIDs)
		}
		chunk := jobIDs[start:end]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]
		args := make([]interface{}, 0, len(chunk)+1)
		args = append(args, boolToInt(processed))
		for _, id := range chunk {
			args = append(args, id)
		}

		if _, err := s.db.DB().ExecContext(ctx,
			"UPDATE jobs SET rag_processed = ? WHERE job_id IN ("+placeholders+")", args...); err != nil {
			return fmt.Errorf("failed to mark jobs processed: %w", err)
		}
	}
	return nil
}

// ClearAll removes every job, detail, and match row.
func (s *JobStorage) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"resume_matches", "job_details", "jobs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}

	s.logger.Warn().Msg("Cleared all job data")
	return nil
}

// Close releases the underlying connection.
func (s *JobStorage) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(scanner rowScanner) (*models.Job, error) {
	var (
		job          models.Job
		url, website sql.NullString
		matchScore   sql.NullFloat64
		createdAt    int64
		submittedAt  sql.NullInt64
	)
	err := scanner.Scan(&job.JobID, &job.Title, &job.Company, &url, &website,
		&job.Fingerprint, &job.ApplicationStatus, &matchScore, &createdAt,
		&submittedAt, &job.IsDeleted, &job.RAGProcessed)
	if err != nil {
		return nil, err
	}

	job.URL = url.String
	job.Website = website.String
	job.CreatedAt = time.Unix(createdAt, 0)
	if matchScore.Valid {
		job.MatchScore = &matchScore.Float64
	}
	if submittedAt.Valid {
		t := time.Unix(submittedAt.Int64, 0)
		job.SubmittedAt = &t
	}
	return &job, nil
}

func scanJobDetail(scanner rowScanner) (*models.JobDetail, error) {
	var (
		detail      models.JobDetail
		extractedAt int64
	)
	err := scanner.Scan(&detail.JobID, &detail.Salary, &detail.Location,
		&detail.Experience, &detail.Education, &detail.Description,
		&detail.Requirements, &detail.Benefits, &detail.PublishTime,
		&detail.CompanyScale, &detail.Industry, &detail.Keyword, &extractedAt)
	if err != nil {
		return nil, err
	}
	detail.ExtractedAt = time.Unix(extractedAt, 0)
	return &detail, nil
}

func scanJobWithDetail(scanner rowScanner) (*models.JobWithDetail, error) {
	var (
		job          models.Job
		url, website sql.NullString
		matchScore   sql.NullFloat64
		createdAt    int64
		submittedAt  sql.NullInt64

		dJobID, dSalary, dLocation, dExperience, dEducation  sql.NullString
		dDescription, dRequirements, dBenefits, dPublishTime sql.NullString
		dCompanyScale, dIndustry, dKeyword                   sql.NullString
		dExtractedAt                                         sql.NullInt64
	)
	err := scanner.Scan(&job.JobID, &job.Title, &job.Company, &url, &website,
		&job.Fingerprint, &job.ApplicationStatus, &matchScore, &createdAt,
		&submittedAt, &job.IsDeleted, &job.RAGProcessed,
		&dJobID, &dSalary, &dLocation, &dExperience, &dEducation,
		&dDescription, &dRequirements, &dBenefits, &dPublishTime,
		&dCompanyScale, &dIndustry, &dKeyword, &dExtractedAt)
	if err != nil {
		return nil, err
	}

	job.URL = url.String
	job.Website = website.String
	job.CreatedAt = time.Unix(createdAt, 0)
	if matchScore.Valid {
		job.MatchScore = &matchScore.Float64
	}
	if submittedAt.Valid {
		t := time.Unix(submittedAt.Int64, 0)
		job.SubmittedAt = &t
	}

	item := &models.JobWithDetail{Job: &job}
	if dJobID.Valid {
		item.Detail = &models.JobDetail{
			JobID:        dJobID.String,
			Salary:       dSalary.String,
			Location:     dLocation.String,
			Experience:   dExperience.String,
			Education:    dEducation.String,
			Description:  dDescription.String,
			Requirements: dRequirements.String,
			Benefits:     dBenefits.String,
			PublishTime:  dPublishTime.String,
			CompanyScale: dCompanyScale.String,
			Industry:     dIndustry.String,
			Keyword:      dKeyword.String,
			ExtractedAt:  time.Unix(dExtractedAt.Int64, 0),
		}
	}
	return item, nil
}

func buildJobWhere(query models.JobQuery) (string, []interface{}) {
	clauses := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	if !query.IncludeDeleted {
		clauses = append(clauses, "is_deleted = 0")
	}
	if query.Website != "" {
		clauses = append(clauses, "website = ?")
		args = append(args, query.Website)
	}
	if query.Company != "" {
		clauses = append(clauses, "company LIKE ?")
		args = append(args, "%"+query.Company+"%")
	}
	if query.Keyword != "" {
		clauses = append(clauses, "(title LIKE ? OR company LIKE ?)")
		args = append(args, "%"+query.Keyword+"%", "%"+query.Keyword+"%")
	}
	if query.Status != "" {
		clauses = append(clauses, "application_status = ?")
		args = append(args, query.Status)
	}
	if query.RAGProcessed != nil {
		clauses = append(clauses, "rag_processed = ?")
		args = append(args, boolToInt(*query.RAGProcessed))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// prefixColumns qualifies a comma-separated column list with a table alias.
func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireRow(result sql.Result, jobID string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("job %s not found", jobID)
	}
	return nil
}
