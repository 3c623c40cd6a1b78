package interfaces

import "github.com/ternarybob/venari/internal/models"

// Scorer - interface for multi-dimensional resume-to-job scoring
type Scorer interface {
	// Score rates one profile against one job using the retrieved documents
	// for semantic evidence. Pure computation, never errors.
	Score(profile *models.ResumeProfile, docs []models.ScoredDocument, job *models.JobMetadata) *models.MatchResult

	// JobMetadata distills a stored job and its detail into scorer input.
	JobMetadata(job *models.Job, detail *models.JobDetail) *models.JobMetadata

	// TopSkills returns the profile's n highest-weighted skills, for
	// personalized query construction.
	TopSkills(profile *models.ResumeProfile, n int) []string
}
