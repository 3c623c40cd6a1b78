package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// CrawlerService - interface for the extraction pipeline
type CrawlerService interface {
	// RunExtraction paginates the configured search, deduplicates listings,
	// and click-fetches details for new jobs.
	RunExtraction(ctx context.Context, keyword string) (*models.ExtractionStats, error)

	// RunAllKeywords runs extraction over every configured keyword tier.
	RunAllKeywords(ctx context.Context) ([]*models.ExtractionStats, error)
}
