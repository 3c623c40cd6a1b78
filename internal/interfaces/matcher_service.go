package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// MatchOptions tunes one matching run.
type MatchOptions struct {
	TopK     int
	Query    string // empty builds the personalized query from the profile
	Strategy string
	Persist  bool
}

// MatcherService - interface for resume-to-job matching
type MatcherService interface {
	MatchResume(ctx context.Context, profile *models.ResumeProfile, opts MatchOptions) (*models.MatchBundle, error)
}
