package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/venari/internal/models"
)

// BrowserDriver - interface for the managed browser
type BrowserDriver interface {
	// Lifecycle
	Start(ctx context.Context) error
	Stop() error
	Healthy(ctx context.Context) bool

	// Navigation
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)

	// Element interaction
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Exists(ctx context.Context, selector string) (bool, error)
	Count(ctx context.Context, selector string) (int, error)
	Click(ctx context.Context, selector string) error
	ScrollIntoView(ctx context.Context, selector string, index int) error
	Hover(ctx context.Context, selector string, index int) error
	ClickOpensTab(ctx context.Context, selector string, index int, timeout time.Duration) (html string, url string, err error)

	// Session state
	ExportCookies(ctx context.Context) ([]models.SessionCookie, error)
	ImportCookies(ctx context.Context, cookies []models.SessionCookie) error
	ExportStorage(ctx context.Context) (local map[string]string, session map[string]string, err error)
	ImportStorage(ctx context.Context, local map[string]string, session map[string]string) error
	UserAgent() string
	Window() models.WindowSize
}
