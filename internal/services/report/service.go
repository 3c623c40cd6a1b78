// -----------------------------------------------------------------------
// Match report - file output in markdown or PDF
// -----------------------------------------------------------------------

package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/models"
)

// Service writes match reports to disk. The format follows the file
// extension: .md stays markdown, .pdf runs the markdown through the PDF
// renderer.
type Service struct {
	cfg    common.ReportConfig
	logger arbor.ILogger
}

func NewService(cfg common.ReportConfig, logger arbor.ILogger) *Service {
	return &Service{cfg: cfg, logger: logger}
}

// Write renders the bundle and writes it to path. An empty path lands a
// timestamped PDF in the configured output directory. Returns the final path.
func (s *Service) Write(profile *models.ResumeProfile, bundle *models.MatchBundle, path string) (string, error) {
	if bundle == nil {
		return "", fmt.Errorf("bundle is nil")
	}
	if path == "" {
		path = filepath.Join(s.cfg.OutputDir, fmt.Sprintf("match_report_%s.pdf", time.Now().Format("20060102_150405")))
	}

	markdown := BuildMarkdown(profile, bundle, time.Now())

	var payload []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		payload = []byte(markdown)
	case ".pdf":
		rendered, err := s.RenderPDF(markdown)
		if err != nil {
			return "", err
		}
		payload = rendered
	default:
		return "", fmt.Errorf("unsupported report format %q (use .md or .pdf)", filepath.Ext(path))
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	s.logger.Info().
		Str("path", path).
		Int("matches", len(bundle.Matches)).
		Int("bytes", len(payload)).
		Msg("Report written")
	return path, nil
}
