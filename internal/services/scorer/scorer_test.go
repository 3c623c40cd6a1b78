package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

func testProfile() *models.ResumeProfile {
	return &models.ResumeProfile{
		ProfileID:            "profile_test",
		Name:                 "测试候选人",
		TotalExperienceYears: 8,
		CurrentPosition:      "数据工程师",
		SkillCategories: []models.SkillCategory{
			{Name: "核心技能", Skills: []string{"Python", "机器学习", "SQL", "Docker"}},
		},
		IndustryExperience:  map[string]float64{"制药": 0.9},
		ExpectedSalaryRange: &models.SalaryRange{Min: 300000, Max: 500000},
	}
}

func TestScoreEndToEnd(t *testing.T) {
	svc := NewService(common.NewDefaultConfig(), arbor.NewLogger())

	job := &models.JobMetadata{
		JobID:         "job_s6",
		Title:         "数据平台工程师",
		Company:       "生物医药集团",
		Industry:      "healthcare",
		Skills:        []string{"python", "机器学习", "spark"},
		RequiredYears: 5,
		Salary:        &models.SalaryRange{Min: 400000, Max: 600000},
	}
	docs := []models.ScoredDocument{scoredDoc(models.DocTypeOverview, 0.82, "")}

	result := svc.Score(testProfile(), docs, job)
	require.NotNil(t, result)

	// D1 0.82, D2 3.0/4.3 + 0.04 surplus bonus for docker (tier one, absent
	// from the listing), D3 1.0 (8y vs 5y), D4 0.6 (制药~healthcare),
	// D5 0.5 (100k overlap / 200k narrower range)
	assert.InDelta(t, 0.82, result.Dimensions.SemanticSimilarity, 1e-9)
	assert.InDelta(t, 3.0/4.3+0.04, result.Dimensions.SkillsMatch, 1e-6)
	assert.InDelta(t, 1.0, result.Dimensions.ExperienceMatch, 1e-9)
	assert.InDelta(t, 0.6, result.Dimensions.IndustryMatch, 1e-9)
	assert.InDelta(t, 0.5, result.Dimensions.SalaryMatch, 1e-9)

	assert.InDelta(t, 0.762, result.OverallScore, 0.005)
	assert.Equal(t, models.MatchLevelGood, result.MatchLevel)
	assert.Equal(t, models.PriorityMedium, result.Priority)
	assert.InDelta(t, 0.97, result.Confidence, 0.01)

	assert.Equal(t, "job_s6", result.JobID)
	assert.Equal(t, "profile_test", result.ResumeProfileID)
	assert.Contains(t, result.Analysis.MissingSkills, "spark")
	assert.False(t, result.ScoredAt.IsZero())
}

func TestScoreUnknownEverythingStaysNeutral(t *testing.T) {
	svc := NewService(common.NewDefaultConfig(), arbor.NewLogger())

	result := svc.Score(testProfile(), nil, &models.JobMetadata{JobID: "job_bare", Title: "岗位"})

	assert.Zero(t, result.Dimensions.SemanticSimilarity, "no documents, no semantic evidence")
	assert.InDelta(t, 0.5, result.Dimensions.SkillsMatch, 1e-9)
	assert.InDelta(t, 0.9, result.Dimensions.ExperienceMatch, 1e-9)
	assert.InDelta(t, 0.7, result.Dimensions.IndustryMatch, 1e-9)
	assert.InDelta(t, 0.8, result.Dimensions.SalaryMatch, 1e-9)
}

func TestScoreUsesNormalizedConfigWeights(t *testing.T) {
	cfg := common.NewDefaultConfig()
	// un-normalized weights: skills-only after normalization
	cfg.ResumeMatchingAdvanced.MatchingWeights = &models.MatchWeights{SkillsMatch: 3}
	svc := NewService(cfg, arbor.NewLogger())

	job := &models.JobMetadata{
		JobID:  "job_w",
		Skills: []string{"python"},
	}
	result := svc.Score(testProfile(), nil, job)

	// python matched, full coverage 1.0 + surplus bonuses clamp to 1.0
	assert.InDelta(t, 1.0, result.OverallScore, 1e-6)
	assert.InDelta(t, 1.0, svc.weights.Sum(), 1e-9)
}

func TestConfidenceTracksDisagreement(t *testing.T) {
	dims := models.DimensionScores{
		SemanticSimilarity: 1.0,
		SkillsMatch:        0.0,
		ExperienceMatch:    1.0,
		IndustryMatch:      0.0,
		SalaryMatch:        1.0,
	}
	assert.InDelta(t, 0.76, confidence(dims), 1e-6)

	uniform := models.DimensionScores{SemanticSimilarity: 0.7, SkillsMatch: 0.7,
		ExperienceMatch: 0.7, IndustryMatch: 0.7, SalaryMatch: 0.7}
	assert.InDelta(t, 1.0, confidence(uniform), 1e-9)
}

func TestTopSkillsOrdersByWeight(t *testing.T) {
	svc := NewService(common.NewDefaultConfig(), arbor.NewLogger())
	profile := &models.ResumeProfile{
		SkillCategories: []models.SkillCategory{
			{Name: "a", Skills: []string{"git", "python", "java", "机器学习"}},
		},
	}

	top := svc.TopSkills(profile, 3)
	assert.Equal(t, []string{"python", "机器学习", "java"}, top)

	assert.Len(t, svc.TopSkills(profile, 10), 4, "n past the end returns all")
}
