package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// highQualityThreshold marks a stored match as high quality for health
// reporting; it tracks the "good" bucket cut point.
const highQualityThreshold = 0.70

// MatchStorage implements SQLite persistence for scored matches
type MatchStorage struct {
	db     *SQLiteDB
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewMatchStorage creates a new match storage instance
func NewMatchStorage(db *SQLiteDB, logger arbor.ILogger) interfaces.MatchStorage {
	return &MatchStorage{
		db:     db,
		logger: logger,
	}
}

// SaveMatch upserts one match row keyed by (job_id, resume_profile_id).
// Re-scoring a pair refreshes every score column.
func (s *MatchStorage) SaveMatch(ctx context.Context, match *models.ResumeMatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return saveMatchExec(ctx, s.db.DB(), match)
}

// SaveMatches upserts a batch inside one transaction.
func (s *MatchStorage) SaveMatches(ctx context.Context, matches []*models.ResumeMatch) (int, error) {
	if len(matches) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, match := range matches {
		if err := saveMatchExec(ctx, tx, match); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit matches: %w", err)
	}

	s.logger.Info().Int("count", len(matches)).Msg("Saved match batch")
	return len(matches), nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func saveMatchExec(ctx context.Context, db execer, match *models.ResumeMatch) error {
	createdAt := match.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO resume_matches (
			job_id, resume_profile_id, match_score, semantic_score, skills_score,
			experience_score, industry_score, salary_score, priority_level,
			match_details, match_reasons, processed, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, resume_profile_id) DO UPDATE SET
			match_score = excluded.match_score,
			semantic_score = excluded.semantic_score,
			skills_score = excluded.skills_score,
			experience_score = excluded.experience_score,
			industry_score = excluded.industry_score,
			salary_score = excluded.salary_score,
			priority_level = excluded.priority_level,
			match_details = excluded.match_details,
			match_reasons = excluded.match_reasons,
			processed = excluded.processed,
			created_at = excluded.created_at`,
		match.JobID, match.ResumeProfileID, match.MatchScore, match.SemanticScore,
		match.SkillsScore, match.ExperienceScore, match.IndustryScore,
		match.SalaryScore, match.PriorityLevel, match.MatchDetails,
		match.MatchReasons, boolToInt(match.Processed), createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save match %s/%s: %w", match.JobID, match.ResumeProfileID, err)
	}
	return nil
}

// GetMatchesForJob returns every profile's match for one job.
func (s *MatchStorage) GetMatchesForJob(ctx context.Context, jobID string) ([]*models.ResumeMatch, error) {
	return s.queryMatches(ctx,
		"WHERE job_id = ? ORDER BY match_score DESC", jobID)
}

// GetTopMatches returns the best matches for a profile, highest score first.
func (s *MatchStorage) GetTopMatches(ctx context.Context, profileID string, limit int) ([]*models.ResumeMatch, error) {
	clause := "WHERE resume_profile_id = ? ORDER BY match_score DESC"
	if limit > 0 {
		clause += fmt.Sprintf(" LIMIT %d", limit)
	}
	return s.queryMatches(ctx, clause, profileID)
}

func (s *MatchStorage) queryMatches(ctx context.Context, clause string, args ...interface{}) ([]*models.ResumeMatch, error) {
	rows, err := s.db.DB().QueryContext(ctx, `
		SELECT job_id, resume_profile_id, match_score, semantic_score, skills_score,
			experience_score, industry_score, salary_score, priority_level,
			match_details, match_reasons, processed, created_at
		FROM resume_matches `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.ResumeMatch
	for rows.Next() {
		var (
			match     models.ResumeMatch
			priority  sql.NullString
			details   sql.NullString
			reasons   sql.NullString
			createdAt int64
		)
		err := rows.Scan(&match.JobID, &match.ResumeProfileID, &match.MatchScore,
			&match.SemanticScore, &match.SkillsScore, &match.ExperienceScore,
			&match.IndustryScore, &match.SalaryScore, &priority, &details,
			&reasons, &match.Processed, &createdAt)
		if err != nil {
			return nil, err
		}
		match.PriorityLevel = priority.String
		match.MatchDetails = details.String
		match.MatchReasons = reasons.String
		match.CreatedAt = time.Unix(createdAt, 0)
		matches = append(matches, &match)
	}
	return matches, rows.Err()
}

// GetMatchStats aggregates stored matches for one profile.
func (s *MatchStorage) GetMatchStats(ctx context.Context, profileID string) (*models.MatchStats, error) {
	stats := &models.MatchStats{}
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(DISTINCT job_id),
			COALESCE(AVG(match_score), 0),
			COALESCE(SUM(CASE WHEN match_score >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(match_score), 0)
		FROM resume_matches
		WHERE resume_profile_id = ?`, highQualityThreshold, profileID).
		Scan(&stats.TotalMatches, &stats.MatchedJobs, &stats.AverageScore,
			&stats.HighQualityCount, &stats.BestScore)
	if err != nil {
		return nil, fmt.Errorf("failed to compute match stats: %w", err)
	}
	return stats, nil
}

// GetGlobalStats aggregates stored matches across every profile. The health
// monitor snapshots from this.
func (s *MatchStorage) GetGlobalStats(ctx context.Context) (*models.MatchStats, error) {
	stats := &models.MatchStats{}
	err := s.db.DB().QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(DISTINCT job_id),
			COALESCE(AVG(match_score), 0),
			COALESCE(SUM(CASE WHEN match_score >= ? THEN 1 ELSE 0 END), 0),
			COALESCE(MAX(match_score), 0)
		FROM resume_matches`, highQualityThreshold).
		Scan(&stats.TotalMatches, &stats.MatchedJobs, &stats.AverageScore,
			&stats.HighQualityCount, &stats.BestScore)
	if err != nil {
		return nil, fmt.Errorf("failed to compute global match stats: %w", err)
	}
	return stats, nil
}

// DeleteMatchesForProfile removes every match row for a profile.
func (s *MatchStorage) DeleteMatchesForProfile(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.DB().ExecContext(ctx,
		"DELETE FROM resume_matches WHERE resume_profile_id = ?", profileID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for %s: %w", profileID, err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows > 0 {
		s.logger.Info().Str("profile", profileID).Int64("deleted", rows).Msg("Deleted stored matches")
	}
	return nil
}
