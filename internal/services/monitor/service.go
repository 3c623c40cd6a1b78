// -----------------------------------------------------------------------
// Health monitor - scheduled snapshots, alert rules, auto-repair
// -----------------------------------------------------------------------

package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	plog "github.com/phuslu/log"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// repairTimeout bounds one auto-repair matching pass.
const repairTimeout = 10 * time.Minute

// Notifier delivers an alert digest. Optional; a nil notifier means alerts
// only reach the log.
type Notifier interface {
	SendDigest(ctx context.Context, subject, markdown string) error
}

// Service runs scheduled health checks over the job and match stores. One
// check at a time: cron fires are serialized through a mutex, and a panic in
// a cycle is recovered rather than taking the process down.
type Service struct {
	jobs     interfaces.JobStorage
	matches  interfaces.MatchStorage
	matcher  interfaces.MatcherService
	resumes  interfaces.ResumeService
	notifier Notifier
	cfg      common.MonitorConfig
	profile  string // default profile name used for auto-repair
	logger   arbor.ILogger

	cron  *cron.Cron
	runMu sync.Mutex

	histMu  sync.Mutex
	history []models.HealthSnapshot
}

// NewService wires the monitor. Matcher, resumes, and notifier may be nil;
// auto-repair and digests degrade to no-ops without them.
func NewService(
	cfg common.MonitorConfig,
	defaultProfile string,
	jobs interfaces.JobStorage,
	matches interfaces.MatchStorage,
	matcher interfaces.MatcherService,
	resumes interfaces.ResumeService,
	notifier Notifier,
	logger arbor.ILogger,
) *Service {
	return &Service{
		jobs:     jobs,
		matches:  matches,
		matcher:  matcher,
		resumes:  resumes,
		notifier: notifier,
		cfg:      cfg,
		profile:  defaultProfile,
		logger:   logger,
	}
}

var _ interfaces.MonitorService = (*Service)(nil)

// Start registers the cron entry and begins firing. Disabled config is a
// silent no-op so callers can Start unconditionally.
func (s *Service) Start() error {
	if !s.cfg.Enabled {
		return nil
	}
	if err := common.ValidateScheduleSpec(s.cfg.Cron); err != nil {
		return fmt.Errorf("invalid monitor schedule: %w", err)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.Cron, s.runCycle); err != nil {
		return fmt.Errorf("failed to schedule monitor: %w", err)
	}
	s.cron.Start()
	s.logger.Info().Str("cron", s.cfg.Cron).Msg("Health monitor started")
	return nil
}

// Stop halts the schedule and waits for a running cycle to finish.
func (s *Service) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
		s.cron = nil
	}
	s.runMu.Lock()
	s.runMu.Unlock()
}

// runCycle is the cron entry point. Recovered panics are logged; the next
// fire runs normally.
func (s *Service) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Monitor cycle panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), repairTimeout)
	defer cancel()

	if _, _, err := s.RunHealthCheck(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Health check failed")
	}
}

// RunHealthCheck takes one snapshot, evaluates the alert rules against it
// and the recent history, records it, and runs auto-repair when configured.
func (s *Service) RunHealthCheck(ctx context.Context) (*models.HealthSnapshot, []models.Alert, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	snapshot, err := s.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}

	alerts := s.evaluate(snapshot)
	s.appendHistory(*snapshot)
	s.emitAlerts(ctx, alerts)

	if s.cfg.AutoRepair {
		s.repair(ctx)
	}

	s.logger.Info().
		Int("total_jobs", snapshot.TotalJobs).
		Int("total_matches", snapshot.TotalMatches).
		Float64("match_rate", snapshot.MatchRate).
		Float64("avg_score", snapshot.AvgScore).
		Int("alerts", len(alerts)).
		Msg("Health check completed")
	return snapshot, alerts, nil
}

func (s *Service) snapshot(ctx context.Context) (*models.HealthSnapshot, error) {
	totalJobs, err := s.jobs.CountJobs(ctx, models.JobQuery{})
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	stats, err := s.matches.GetGlobalStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read match stats: %w", err)
	}

	rate := 0.0
	if totalJobs > 0 {
		rate = float64(stats.MatchedJobs) / float64(totalJobs)
	}
	return &models.HealthSnapshot{
		TotalJobs:        totalJobs,
		TotalMatches:     stats.TotalMatches,
		MatchRate:        rate,
		AvgScore:         stats.AverageScore,
		HighQualityCount: stats.HighQualityCount,
		TakenAt:          time.Now(),
	}, nil
}

// evaluate applies the alert rules. The trend rule reads the two previous
// snapshots, so it is evaluated before the new snapshot joins the history.
func (s *Service) evaluate(snap *models.HealthSnapshot) []models.Alert {
	var alerts []models.Alert
	now := time.Now()

	if snap.TotalJobs > 0 && snap.MatchRate < s.cfg.MinMatchRate {
		alerts = append(alerts, models.Alert{
			Level:     models.AlertLevelCritical,
			Kind:      models.AlertLowMatchRate,
			Message:   fmt.Sprintf("职位匹配率 %.1f%% 低于阈值 %.1f%%", snap.MatchRate*100, s.cfg.MinMatchRate*100),
			Value:     snap.MatchRate,
			Threshold: s.cfg.MinMatchRate,
			CreatedAt: now,
		})
	}
	if snap.TotalMatches > 0 && snap.AvgScore < s.cfg.MinAvgScore {
		alerts = append(alerts, models.Alert{
			Level:     models.AlertLevelWarning,
			Kind:      models.AlertLowAvgScore,
			Message:   fmt.Sprintf("平均匹配分 %.2f 低于阈值 %.2f", snap.AvgScore, s.cfg.MinAvgScore),
			Value:     snap.AvgScore,
			Threshold: s.cfg.MinAvgScore,
			CreatedAt: now,
		})
	}
	if snap.TotalMatches > 0 {
		ratio := float64(snap.HighQualityCount) / float64(snap.TotalMatches)
		if ratio < s.cfg.HighQualityRatio {
			alerts = append(alerts, models.Alert{
				Level:     models.AlertLevelWarning,
				Kind:      models.AlertLowHighQuality,
				Message:   fmt.Sprintf("高质量匹配占比 %.1f%% 低于阈值 %.1f%%", ratio*100, s.cfg.HighQualityRatio*100),
				Value:     ratio,
				Threshold: s.cfg.HighQualityRatio,
				CreatedAt: now,
			})
		}
	}
	if prev := s.recentHistory(2); len(prev) == 2 {
		if snap.MatchRate < prev[1].MatchRate && prev[1].MatchRate < prev[0].MatchRate {
			alerts = append(alerts, models.Alert{
				Level:     models.AlertLevelWarning,
				Kind:      models.AlertDownwardTrend,
				Message:   "匹配率连续三次下降",
				Value:     snap.MatchRate,
				Threshold: prev[0].MatchRate,
				CreatedAt: now,
			})
		}
	}
	return alerts
}

// severityLevel maps an alert severity onto a log level.
func severityLevel(alert models.Alert) plog.Level {
	if alert.Level == models.AlertLevelCritical {
		return plog.ErrorLevel
	}
	return plog.WarnLevel
}

func (s *Service) emitAlerts(ctx context.Context, alerts []models.Alert) {
	for _, alert := range alerts {
		event := s.logger.Warn()
		if severityLevel(alert) >= plog.ErrorLevel {
			event = s.logger.Error()
		}
		event.
			Str("kind", alert.Kind).
			Float64("value", alert.Value).
			Float64("threshold", alert.Threshold).
			Msg(alert.Message)
	}

	if s.notifier == nil || len(alerts) == 0 {
		return
	}
	var b strings.Builder
	b.WriteString("# 职位匹配健康告警\n\n")
	for _, alert := range alerts {
		fmt.Fprintf(&b, "- **%s** (%s): %s\n", alert.Kind, alert.Level, alert.Message)
	}
	if err := s.notifier.SendDigest(ctx, "venari 健康告警", b.String()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to mail alert digest")
	}
}

// repair re-matches embedded jobs the default profile has never been scored
// against. Failures log and wait for the next cycle; repair never fails the
// health check itself.
func (s *Service) repair(ctx context.Context) {
	if s.matcher == nil || s.resumes == nil || s.profile == "" {
		return
	}

	profile, err := s.resumes.LoadProfile(ctx, s.profile)
	if err != nil {
		s.logger.Warn().Err(err).Str("profile", s.profile).Msg("Auto-repair skipped, profile unavailable")
		return
	}

	pending, err := s.jobs.GetUnmatchedProcessedJobs(ctx, profile.ProfileID, s.cfg.RepairBatchSize)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Auto-repair skipped, unmatched query failed")
		return
	}
	if len(pending) == 0 {
		return
	}

	bundle, err := s.matcher.MatchResume(ctx, profile, interfaces.MatchOptions{
		TopK:    len(pending),
		Persist: true,
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Auto-repair matching failed")
		return
	}
	s.logger.Info().
		Int("pending", len(pending)).
		Int("matched", len(bundle.Matches)).
		Msg("Auto-repair pass completed")
}

func (s *Service) appendHistory(snap models.HealthSnapshot) {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	s.history = append(s.history, snap)
	max := s.cfg.HistorySize
	if max <= 0 {
		max = 100
	}
	if len(s.history) > max {
		s.history = s.history[len(s.history)-max:]
	}
}

// recentHistory returns up to the n most recent snapshots, oldest first.
func (s *Service) recentHistory(n int) []models.HealthSnapshot {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	if len(s.history) < n {
		return nil
	}
	out := make([]models.HealthSnapshot, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// History returns a copy of the recorded snapshots, oldest first.
func (s *Service) History() []models.HealthSnapshot {
	s.histMu.Lock()
	defer s.histMu.Unlock()

	out := make([]models.HealthSnapshot, len(s.history))
	copy(out, s.history)
	return out
}
