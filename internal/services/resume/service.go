// -----------------------------------------------------------------------
// Resume service - profile files on disk, PDF/LLM ingestion
// -----------------------------------------------------------------------

package resume

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/ternarybob/arbor"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
	"github.com/ternarybob/venari/internal/services/llm"
)

// profileExtensions are the recognized profile file formats, tried in order
// when resolving a bare name.
var profileExtensions = []string{".yaml", ".yml", ".json", ".toml"}

// Service loads, saves, and ingests resume profiles. Profiles live as plain
// files under the configured profile directory; the LLM only enters the
// picture for ingestion.
type Service struct {
	cfg    common.ResumeConfig
	llm    llm.Completer
	logger arbor.ILogger
}

// NewService wires the resume service. The completer may be nil; ingestion
// then fails with a clear error while file loading keeps working.
func NewService(cfg common.ResumeConfig, completer llm.Completer, logger arbor.ILogger) *Service {
	return &Service{
		cfg:    cfg,
		llm:    completer,
		logger: logger,
	}
}

var _ interfaces.ResumeService = (*Service)(nil)

// LoadProfile resolves a bare profile name against the profile directory or
// takes an explicit path, decodes by extension, and adapts legacy layouts.
func (s *Service) LoadProfile(ctx context.Context, nameOrPath string) (*models.ResumeProfile, error) {
	path, err := s.resolvePath(nameOrPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	raw, err := decodeProfile(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to decode profile %s: %w", path, err)
	}

	profile, err := profileFromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}
	if profile.ProfileID == "" {
		// the file base name is the natural identity for file-backed profiles
		profile.ProfileID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if profile.Name == "" && len(profile.SkillCategories) == 0 {
		return nil, fmt.Errorf("profile %s has neither a name nor skills", path)
	}

	s.logger.Info().
		Str("profile", profile.ProfileID).
		Str("path", path).
		Int("skills", len(profile.GetAllSkills())).
		Msg("Profile loaded")
	return profile, nil
}

// resolvePath accepts an explicit file path as-is and resolves bare names
// against the profile directory across the known extensions.
func (s *Service) resolvePath(nameOrPath string) (string, error) {
	if nameOrPath == "" {
		nameOrPath = s.cfg.DefaultProfile
	}
	if nameOrPath == "" {
		return "", fmt.Errorf("no profile named and no default_profile configured")
	}

	if hasProfileExtension(nameOrPath) {
		if _, err := os.Stat(nameOrPath); err == nil {
			return nameOrPath, nil
		}
		if candidate := filepath.Join(s.cfg.ProfileDir, nameOrPath); fileExists(candidate) {
			return candidate, nil
		}
		return "", fmt.Errorf("profile file %s not found", nameOrPath)
	}

	for _, ext := range profileExtensions {
		candidate := filepath.Join(s.cfg.ProfileDir, nameOrPath+ext)
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("profile %q not found under %s", nameOrPath, s.cfg.ProfileDir)
}

// SaveProfile writes the profile as YAML into the profile directory and
// returns the path.
func (s *Service) SaveProfile(ctx context.Context, profile *models.ResumeProfile) (string, error) {
	if profile == nil {
		return "", fmt.Errorf("profile is nil")
	}
	if profile.ProfileID == "" {
		profile.ProfileID = profileIDFor(profile.Name)
	}
	if err := os.MkdirAll(s.cfg.ProfileDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create profile directory: %w", err)
	}

	data, err := yaml.Marshal(profile)
	if err != nil {
		return "", fmt.Errorf("failed to encode profile: %w", err)
	}

	path := filepath.Join(s.cfg.ProfileDir, profile.ProfileID+".yaml")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write profile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize profile: %w", err)
	}

	s.logger.Info().Str("profile", profile.ProfileID).Str("path", path).Msg("Profile saved")
	return path, nil
}

// ListProfiles returns the profile names (file base names) available under
// the profile directory.
func (s *Service) ListProfiles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.cfg.ProfileDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !hasProfileExtension(entry.Name()) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	return names, nil
}

func decodeProfile(data []byte, ext string) (map[string]interface{}, error) {
	raw := make(map[string]interface{})
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported profile format %q", ext)
	}
	return raw, nil
}

func hasProfileExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, known := range profileExtensions {
		if ext == known {
			return true
		}
	}
	return false
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// profileIDFor derives a stable identifier from a human name or file base.
func profileIDFor(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "profile"
	}
	sum := md5.Sum([]byte(name))
	return fmt.Sprintf("profile_%x", sum[:4])
}
