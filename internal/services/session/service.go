package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// Service persists browser sessions as JSON files. Writes go through a
// tempfile rename so a crash mid-save never leaves a torn session behind.
type Service struct {
	path   string
	ttl    time.Duration
	logger arbor.ILogger
}

// NewService creates a session store rooted at path with the given TTL
func NewService(path string, ttl time.Duration, logger arbor.ILogger) interfaces.SessionStore {
	return &Service{
		path:   path,
		ttl:    ttl,
		logger: logger,
	}
}

// Save writes the session snapshot atomically, stamping the save time.
func (s *Service) Save(data *models.SessionData) error {
	if data == nil {
		return fmt.Errorf("session data is nil")
	}
	if data.Timestamp.IsZero() {
		data.Timestamp = time.Now()
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace session file: %w", err)
	}

	s.logger.Info().
		Str("path", s.path).
		Int("cookies", len(data.Cookies)).
		Msg("Session saved")
	return nil
}

// Load reads the stored session. A missing file is not an error; both return
// values are nil so callers can fall through to a fresh login.
func (s *Service) Load() (*models.SessionData, error) {
	raw, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var data models.SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}

	s.logger.Debug().
		Str("path", s.path).
		Str("age", data.Age().Round(time.Second).String()).
		Msg("Session loaded")
	return &data, nil
}

// Valid reports whether the snapshot is usable: present, within TTL, and
// carrying at least one cookie.
func (s *Service) Valid(data *models.SessionData) bool {
	if data == nil {
		return false
	}
	if data.Expired(s.ttl) {
		s.logger.Debug().
			Str("age", data.Age().Round(time.Second).String()).
			Str("ttl", s.ttl.String()).
			Msg("Session expired")
		return false
	}
	if len(data.Cookies) == 0 {
		s.logger.Debug().Msg("Session has no cookies")
		return false
	}
	return true
}

// Info describes the stored session without restoring it.
func (s *Service) Info() (*models.SessionInfo, error) {
	data, err := s.Load()
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	return &models.SessionInfo{
		Path:        s.path,
		SavedAt:     data.Timestamp,
		CurrentURL:  data.CurrentURL,
		CookieCount: len(data.Cookies),
		UserAgent:   data.UserAgent,
		Expired:     data.Expired(s.ttl),
	}, nil
}

// ListSessions describes every session snapshot in the store's directory,
// newest first. Unreadable files are skipped rather than failing the listing.
func (s *Service) ListSessions() ([]*models.SessionInfo, error) {
	dir := filepath.Dir(s.path)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var infos []*models.SessionInfo
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var data models.SessionData
		if err := json.Unmarshal(raw, &data); err != nil {
			s.logger.Debug().Str("path", path).Msg("Skipping unreadable session file")
			continue
		}
		infos = append(infos, &models.SessionInfo{
			Path:        path,
			SavedAt:     data.Timestamp,
			CurrentURL:  data.CurrentURL,
			CookieCount: len(data.Cookies),
			UserAgent:   data.UserAgent,
			Expired:     data.Expired(s.ttl),
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].SavedAt.After(infos[j].SavedAt)
	})
	return infos, nil
}

// Clear removes the session file. Clearing an absent file succeeds.
func (s *Service) Clear() error {
	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	s.logger.Info().Str("path", s.path).Msg("Session cleared")
	return nil
}

// Path returns the configured session file location.
func (s *Service) Path() string {
	return s.path
}
