// -----------------------------------------------------------------------
// Match results - scorer output and matcher result bundles
// -----------------------------------------------------------------------

package models

import "time"

// Match levels over the overall score.
const (
	MatchLevelExcellent = "excellent"
	MatchLevelGood      = "good"
	MatchLevelFair      = "fair"
	MatchLevelPoor      = "poor"
)

// Priority levels governing recommendation ordering.
const (
	PriorityHigh           = "high"
	PriorityMedium         = "medium"
	PriorityLow            = "low"
	PriorityNotRecommended = "not_recommended"
)

// MatchLevelForScore buckets an overall score. Monotone non-decreasing in score.
func MatchLevelForScore(score float64) string {
	switch {
	case score >= 0.85:
		return MatchLevelExcellent
	case score >= 0.70:
		return MatchLevelGood
	case score >= 0.50:
		return MatchLevelFair
	default:
		return MatchLevelPoor
	}
}

// PriorityForScore buckets an overall score into a recommendation priority.
func PriorityForScore(score float64) string {
	switch {
	case score >= 0.85:
		return PriorityHigh
	case score >= 0.70:
		return PriorityMedium
	case score >= 0.50:
		return PriorityLow
	default:
		return PriorityNotRecommended
	}
}

// DimensionScores holds the five per-dimension scores, each in [0,1].
type DimensionScores struct {
	SemanticSimilarity float64 `json:"semantic_similarity"`
	SkillsMatch        float64 `json:"skills_match"`
	ExperienceMatch    float64 `json:"experience_match"`
	IndustryMatch      float64 `json:"industry_match"`
	SalaryMatch        float64 `json:"salary_match"`
}

// AsSlice returns the scores in canonical dimension order.
func (d DimensionScores) AsSlice() []float64 {
	return []float64{d.SemanticSimilarity, d.SkillsMatch, d.ExperienceMatch, d.IndustryMatch, d.SalaryMatch}
}

// MatchWeights are the per-dimension weights. After configuration loading they
// always sum to 1.0.
type MatchWeights struct {
	SemanticSimilarity float64 `json:"semantic_similarity" yaml:"semantic_similarity"`
	SkillsMatch        float64 `json:"skills_match" yaml:"skills_match"`
	ExperienceMatch    float64 `json:"experience_match" yaml:"experience_match"`
	IndustryMatch      float64 `json:"industry_match" yaml:"industry_match"`
	SalaryMatch        float64 `json:"salary_match" yaml:"salary_match"`
}

// Sum returns the weight total (1.0 after normalization).
func (w MatchWeights) Sum() float64 {
	return w.SemanticSimilarity + w.SkillsMatch + w.ExperienceMatch + w.IndustryMatch + w.SalaryMatch
}

// Normalize scales the weights to unit sum. Zero-sum weights fall back to the
// defaults rather than dividing by zero.
func (w MatchWeights) Normalize() MatchWeights {
	total := w.Sum()
	if total <= 0 {
		return DefaultMatchWeights()
	}
	return MatchWeights{
		SemanticSimilarity: w.SemanticSimilarity / total,
		SkillsMatch:        w.SkillsMatch / total,
		ExperienceMatch:    w.ExperienceMatch / total,
		IndustryMatch:      w.IndustryMatch / total,
		SalaryMatch:        w.SalaryMatch / total,
	}
}

// DefaultMatchWeights returns the weights used when no configuration supplies
// any. Already unit-sum.
func DefaultMatchWeights() MatchWeights {
	return MatchWeights{
		SemanticSimilarity: 0.40,
		SkillsMatch:        0.45,
		ExperienceMatch:    0.05,
		IndustryMatch:      0.02,
		SalaryMatch:        0.08,
	}
}

// JobMetadata is the scorer's structured view of one job: facts distilled
// from the stored row, its detail, and the display strings. Zero values mean
// "unknown" and score through the neutral branches of each dimension.
type JobMetadata struct {
	JobID         string       `json:"job_id"`
	Title         string       `json:"title"`
	Company       string       `json:"company"`
	Industry      string       `json:"industry,omitempty"`
	Skills        []string     `json:"skills,omitempty"`
	RequiredYears float64      `json:"required_years,omitempty"` // 0 = not stated
	Salary        *SalaryRange `json:"salary,omitempty"`         // annualized; nil = 面议
	Description   string       `json:"description,omitempty"`
}

// MatchAnalysis is the deterministic, human-readable breakdown derived from
// the dimension scores.
type MatchAnalysis struct {
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	MatchedSkills   []string `json:"matched_skills"`
	MissingSkills   []string `json:"missing_skills"`
}

// MatchResult is one scored (resume, job) pair.
type MatchResult struct {
	JobID           string          `json:"job_id"`
	ResumeProfileID string          `json:"resume_profile_id"`
	JobTitle        string          `json:"job_title,omitempty"`
	Company         string          `json:"company,omitempty"`
	OverallScore    float64         `json:"overall_score"`
	Dimensions      DimensionScores `json:"dimension_scores"`
	MatchLevel      string          `json:"match_level"`
	Priority        string          `json:"priority"`
	Confidence      float64         `json:"confidence"`
	Analysis        MatchAnalysis   `json:"analysis"`
	ScoredAt        time.Time       `json:"scored_at"`
}

// MatchSummary aggregates one matcher request.
type MatchSummary struct {
	TotalCandidates int            `json:"total_candidates"`
	Returned        int            `json:"returned"`
	ByPriority      map[string]int `json:"by_priority"`
	AverageScore    float64        `json:"average_score"`
	ElapsedMS       int64          `json:"elapsed_ms"`
	Strategy        string         `json:"strategy"`
	Query           string         `json:"query"`
}

// CareerInsights are corpus-level observations attached to a match bundle.
type CareerInsights struct {
	TopTitles            []string `json:"top_titles"`
	SkillGaps            []string `json:"skill_gaps"`
	SalaryMarketPosition string   `json:"salary_market_position"`
	MarketTrends         []string `json:"market_trends"`
	Recommendations      []string `json:"recommendations"`
}

// MatchBundle is the matcher's complete response. Empty inputs produce an
// empty bundle with Summary populated, never an error.
type MatchBundle struct {
	Matches  []MatchResult  `json:"matches"`
	Summary  MatchSummary   `json:"summary"`
	Insights CareerInsights `json:"insights"`
}

// MatchStats aggregates stored match rows for one profile. HighQualityCount
// counts matches at or above the good threshold (0.70).
type MatchStats struct {
	TotalMatches     int     `json:"total_matches"`
	MatchedJobs      int     `json:"matched_jobs"`
	AverageScore     float64 `json:"average_score"`
	HighQualityCount int     `json:"high_quality_count"`
	BestScore        float64 `json:"best_score"`
}
