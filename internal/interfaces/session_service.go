package interfaces

import "github.com/ternarybob/venari/internal/models"

// SessionStore - interface for on-disk browser session persistence
type SessionStore interface {
	Save(data *models.SessionData) error
	Load() (*models.SessionData, error)
	Valid(data *models.SessionData) bool
	Info() (*models.SessionInfo, error)
	ListSessions() ([]*models.SessionInfo, error)
	Clear() error
	Path() string
}
