// -----------------------------------------------------------------------
// Scorer service - five weighted dimensions into one match result
// -----------------------------------------------------------------------

package scorer

import (
	"sort"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Service computes multi-dimensional match scores. Pure in-memory
// computation; every input arrives through the arguments.
type Service struct {
	weights models.MatchWeights
	tables  *Tables
	logger  arbor.ILogger
}

// NewService builds the scorer from the effective configuration: normalized
// weights and lookup tables with any configured overrides merged in.
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		weights: cfg.EffectiveMatchWeights(),
		tables:  NewTables(cfg.ResumeMatchingAdvanced.SkillTables),
		logger:  logger,
	}
}

var _ interfaces.Scorer = (*Service)(nil)

// Score rates one profile against one job. The retrieved documents carry the
// semantic evidence; the job metadata carries the structured facts.
func (s *Service) Score(profile *models.ResumeProfile, docs []models.ScoredDocument, job *models.JobMetadata) *models.MatchResult {
	resumeSkills := profile.GetAllSkills()

	skillsScore, matched, missing := s.tables.skillsScore(job.Skills, resumeSkills)
	dims := models.DimensionScores{
		SemanticSimilarity: semanticScore(docs),
		SkillsMatch:        skillsScore,
		ExperienceMatch:    experienceScore(profile.TotalExperienceYears, job.RequiredYears),
		IndustryMatch:      s.tables.industryScore(profile, job.Industry),
		SalaryMatch:        salaryScore(profile.ExpectedSalaryRange, job.Salary),
	}

	overall := clamp01(
		s.weights.SemanticSimilarity*dims.SemanticSimilarity +
			s.weights.SkillsMatch*dims.SkillsMatch +
			s.weights.ExperienceMatch*dims.ExperienceMatch +
			s.weights.IndustryMatch*dims.IndustryMatch +
			s.weights.SalaryMatch*dims.SalaryMatch)

	return &models.MatchResult{
		JobID:           job.JobID,
		ResumeProfileID: profile.ProfileID,
		JobTitle:        job.Title,
		Company:         job.Company,
		OverallScore:    overall,
		Dimensions:      dims,
		MatchLevel:      models.MatchLevelForScore(overall),
		Priority:        models.PriorityForScore(overall),
		Confidence:      confidence(dims),
		Analysis:        buildAnalysis(dims, matched, missing),
		ScoredAt:        time.Now(),
	}
}

// confidence falls as the dimensions disagree with each other; it never
// drops below 0.5, since even a divided signal says something.
func confidence(dims models.DimensionScores) float64 {
	scores := dims.AsSlice()
	var mean float64
	for _, v := range scores {
		mean += v
	}
	mean /= float64(len(scores))

	var variance float64
	for _, v := range scores {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(scores))

	c := 1 - variance
	if c < 0.5 {
		return 0.5
	}
	return c
}

// TopSkills returns the profile's n highest-weighted skills in stable order:
// weight descending, original position breaking ties.
func (s *Service) TopSkills(profile *models.ResumeProfile, n int) []string {
	skills := profile.GetAllSkills()
	type ranked struct {
		skill  string
		weight float64
		pos    int
	}
	items := make([]ranked, 0, len(skills))
	seen := make(map[string]bool)
	for i, skill := range skills {
		key := normalizeSkill(skill)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, ranked{skill: skill, weight: s.tables.WeightFor(skill), pos: i})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].weight != items[j].weight {
			return items[i].weight > items[j].weight
		}
		return items[i].pos < items[j].pos
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = items[i].skill
	}
	return out
}
