package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// LoginController - interface for the session-restore and manual-login gate
type LoginController interface {
	// EnsureLoggedIn runs the full gate: restore a saved session if valid,
	// otherwise wait for a manual login, then persist the fresh session.
	EnsureLoggedIn(ctx context.Context) error

	// IsLoggedIn answers from cache inside the validation interval and probes
	// the live page outside it.
	IsLoggedIn(ctx context.Context) (bool, error)

	// ValidateBeforeDetails gates detail navigation mid-run. The probe never
	// navigates; an invalid session is silently restored, with a bounded
	// interactive login as last resort.
	ValidateBeforeDetails(ctx context.Context) error

	SaveSession(ctx context.Context) error
	State() models.LoginState
}
