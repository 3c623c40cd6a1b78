package interfaces

import "github.com/ternarybob/venari/internal/models"

// PageParser - interface for HTML extraction
type PageParser interface {
	// ParseSearchPage extracts listing rows with their paired row selector.
	// Rows missing both title and company are dropped, never fatal.
	ParseSearchPage(html string) (*models.SearchPage, error)

	// ParseJobDetail extracts the detail record for one job. A description
	// under 20 characters with no requirements is a failed extraction.
	ParseJobDetail(html string, jobID string) (*models.JobDetail, error)

	// ClassifyPage detects captcha, block, and error pages before parsing.
	ClassifyPage(html string) models.PageState

	// HasNextPage reports whether an enabled next-page control is present.
	HasNextPage(html string) bool

	// NextPageSelectors returns the click chain for advancing a page.
	NextPageSelectors() []string

	// CurrentPageInfo derives pagination position from URL and DOM.
	CurrentPageInfo(url string, html string) models.PageInfo
}
