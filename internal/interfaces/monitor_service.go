package interfaces

import (
	"context"

	"github.com/ternarybob/venari/internal/models"
)

// MonitorService - interface for scheduled health checks
type MonitorService interface {
	// RunHealthCheck takes a snapshot, evaluates alert rules, and triggers
	// auto-repair when configured.
	RunHealthCheck(ctx context.Context) (*models.HealthSnapshot, []models.Alert, error)

	History() []models.HealthSnapshot
	Start() error
	Stop()
}
