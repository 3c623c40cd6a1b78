package sqlite

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
)

// Manager owns the SQLite connection and hands out typed storage views
type Manager struct {
	db     *SQLiteDB
	job    interfaces.JobStorage
	match  interfaces.MatchStorage
	logger arbor.ILogger
}

// NewManager creates a new SQLite storage manager
func NewManager(logger arbor.ILogger, config *common.DatabaseConfig) (*Manager, error) {
	db, err := NewSQLiteDB(logger, config)
	if err != nil {
		return nil, err
	}

	return &Manager{
		db:     db,
		job:    NewJobStorage(db, logger),
		match:  NewMatchStorage(db, logger),
		logger: logger,
	}, nil
}

// JobStorage returns the job storage interface
func (m *Manager) JobStorage() interfaces.JobStorage {
	return m.job
}

// MatchStorage returns the match storage interface
func (m *Manager) MatchStorage() interfaces.MatchStorage {
	return m.match
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
