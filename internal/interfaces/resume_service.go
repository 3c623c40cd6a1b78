package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// ResumeService - interface for profile loading and ingestion
type ResumeService interface {
	LoadProfile(ctx context.Context, nameOrPath string) (*models.ResumeProfile, error)
	SaveProfile(ctx context.Context, profile *models.ResumeProfile) (string, error)
	ListProfiles(ctx context.Context) ([]string, error)

	// IngestPDF extracts resume text from a PDF and structures it into a
	// profile via the configured model.
	IngestPDF(ctx context.Context, path string) (*models.ResumeProfile, error)

	// IngestText structures raw resume text into a profile.
	IngestText(ctx context.Context, text string) (*models.ResumeProfile, error)
}
