package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/models"
)

func TestSaveMatchUpserts(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewMatchStorage(db, arbor.NewLogger())
	ctx := context.Background()

	match := &models.ResumeMatch{
		JobID:           "job_abc",
		ResumeProfileID: "default",
		MatchScore:      0.62,
		SemanticScore:   0.70,
		SkillsScore:     0.55,
		PriorityLevel:   "medium",
	}
	require.NoError(t, storage.SaveMatch(ctx, match))

	// Re-scoring the same pair replaces, never duplicates.
	match.MatchScore = 0.81
	match.PriorityLevel = "high"
	require.NoError(t, storage.SaveMatch(ctx, match))

	stored, err := storage.GetMatchesForJob(ctx, "job_abc")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.InDelta(t, 0.81, stored[0].MatchScore, 1e-9)
	assert.Equal(t, "high", stored[0].PriorityLevel)
}

func TestGetTopMatchesOrdering(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewMatchStorage(db, arbor.NewLogger())
	ctx := context.Background()

	scores := map[string]float64{
		"job_low":  0.35,
		"job_high": 0.90,
		"job_mid":  0.65,
	}
	for jobID, score := range scores {
		require.NoError(t, storage.SaveMatch(ctx, &models.ResumeMatch{
			JobID:           jobID,
			ResumeProfileID: "default",
			MatchScore:      score,
		}))
	}

	top, err := storage.GetTopMatches(ctx, "default", 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "job_high", top[0].JobID)
	assert.Equal(t, "job_mid", top[1].JobID)
}

func TestGetMatchStats(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewMatchStorage(db, arbor.NewLogger())
	ctx := context.Background()

	empty, err := storage.GetMatchStats(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalMatches)
	assert.Equal(t, 0.0, empty.AverageScore)

	for jobID, score := range map[string]float64{
		"job_a": 0.80, // high quality
		"job_b": 0.75, // high quality
		"job_c": 0.40,
	} {
		require.NoError(t, storage.SaveMatch(ctx, &models.ResumeMatch{
			JobID:           jobID,
			ResumeProfileID: "default",
			MatchScore:      score,
		}))
	}

	stats, err := storage.GetMatchStats(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalMatches)
	assert.Equal(t, 3, stats.MatchedJobs)
	assert.Equal(t, 2, stats.HighQualityCount)
	assert.InDelta(t, 0.65, stats.AverageScore, 1e-9)
	assert.InDelta(t, 0.80, stats.BestScore, 1e-9)
}

func TestDeleteMatchesForProfile(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	storage := NewMatchStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, storage.SaveMatch(ctx, &models.ResumeMatch{
		JobID: "job_a", ResumeProfileID: "keep", MatchScore: 0.5,
	}))
	require.NoError(t, storage.SaveMatch(ctx, &models.ResumeMatch{
		JobID: "job_a", ResumeProfileID: "drop", MatchScore: 0.5,
	}))

	require.NoError(t, storage.DeleteMatchesForProfile(ctx, "drop"))

	kept, err := storage.GetTopMatches(ctx, "keep", 0)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	gone, err := storage.GetTopMatches(ctx, "drop", 0)
	require.NoError(t, err)
	assert.Empty(t, gone)
}
