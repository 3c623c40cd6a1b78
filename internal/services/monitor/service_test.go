package monitor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

type fakeJobs struct {
	interfaces.JobStorage
	total        int
	unmatched    []*models.Job
	gotProfileID string
	gotLimit     int
}

func (f *fakeJobs) CountJobs(ctx context.Context, query models.JobQuery) (int, error) {
	return f.total, nil
}

func (f *fakeJobs) GetUnmatchedProcessedJobs(ctx context.Context, profileID string, limit int) ([]*models.Job, error) {
	f.gotProfileID = profileID
	f.gotLimit = limit
	return f.unmatched, nil
}

type fakeMatches struct {
	interfaces.MatchStorage
	stats models.MatchStats
}

func (f *fakeMatches) GetGlobalStats(ctx context.Context) (*models.MatchStats, error) {
	stats := f.stats
	return &stats, nil
}

type fakeMatcher struct {
	calls   int
	gotOpts interfaces.MatchOptions
}

func (f *fakeMatcher) MatchResume(ctx context.Context, profile *models.ResumeProfile, opts interfaces.MatchOptions) (*models.MatchBundle, error) {
	f.calls++
	f.gotOpts = opts
	return &models.MatchBundle{}, nil
}

type fakeResumes struct {
	profile *models.ResumeProfile
}

func (f *fakeResumes) LoadProfile(ctx context.Context, nameOrPath string) (*models.ResumeProfile, error) {
	return f.profile, nil
}

func (f *fakeResumes) SaveProfile(ctx context.Context, profile *models.ResumeProfile) (string, error) {
	return "", nil
}

func (f *fakeResumes) ListProfiles(ctx context.Context) ([]string, error) { return nil, nil }

func (f *fakeResumes) IngestPDF(ctx context.Context, path string) (*models.ResumeProfile, error) {
	return nil, nil
}

func (f *fakeResumes) IngestText(ctx context.Context, text string) (*models.ResumeProfile, error) {
	return nil, nil
}

type fakeNotifier struct {
	subjects []string
	bodies   []string
}

func (f *fakeNotifier) SendDigest(ctx context.Context, subject, markdown string) error {
	f.subjects = append(f.subjects, subject)
	f.bodies = append(f.bodies, markdown)
	return nil
}

func defaultMonitorConfig() common.MonitorConfig {
	return common.NewDefaultConfig().Schedule.Monitor
}

func newMonitor(jobs *fakeJobs, matches *fakeMatches, opts ...func(*common.MonitorConfig)) (*Service, *fakeMatcher, *fakeNotifier) {
	cfg := defaultMonitorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	matcher := &fakeMatcher{}
	notifier := &fakeNotifier{}
	resumes := &fakeResumes{profile: &models.ResumeProfile{ProfileID: "profile_live"}}
	svc := NewService(cfg, "default", jobs, matches, matcher, resumes, notifier, arbor.NewLogger())
	return svc, matcher, notifier
}

func TestHealthCheckHealthyStore(t *testing.T) {
	jobs := &fakeJobs{total: 100}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 50, MatchedJobs: 40, AverageScore: 0.72, HighQualityCount: 20,
	}}
	svc, _, notifier := newMonitor(jobs, matches)

	snap, alerts, err := svc.RunHealthCheck(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
	assert.Equal(t, 100, snap.TotalJobs)
	assert.InDelta(t, 0.4, snap.MatchRate, 1e-9)
	assert.Empty(t, notifier.subjects, "no alerts, no digest")
	assert.Len(t, svc.History(), 1)
}

func TestHealthCheckAlertRules(t *testing.T) {
	jobs := &fakeJobs{total: 100}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 10, MatchedJobs: 5, AverageScore: 0.42, HighQualityCount: 1,
	}}
	svc, _, notifier := newMonitor(jobs, matches)

	_, alerts, err := svc.RunHealthCheck(context.Background())
	require.NoError(t, err)
	require.Len(t, alerts, 3)

	byKind := make(map[string]models.Alert)
	for _, a := range alerts {
		byKind[a.Kind] = a
	}
	assert.Equal(t, models.AlertLevelCritical, byKind[models.AlertLowMatchRate].Level)
	assert.Equal(t, models.AlertLevelWarning, byKind[models.AlertLowAvgScore].Level)
	assert.Equal(t, models.AlertLevelWarning, byKind[models.AlertLowHighQuality].Level)

	require.Len(t, notifier.subjects, 1, "alerts mail one digest")
	assert.Contains(t, notifier.bodies[0], models.AlertLowMatchRate)
}

func TestHealthCheckEmptyStoreRaisesNothing(t *testing.T) {
	svc, _, _ := newMonitor(&fakeJobs{total: 0}, &fakeMatches{})

	snap, alerts, err := svc.RunHealthCheck(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts, "zero jobs is empty, not unhealthy")
	assert.Zero(t, snap.MatchRate)
}

func TestHealthCheckDownwardTrend(t *testing.T) {
	jobs := &fakeJobs{total: 100}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 80, MatchedJobs: 60, AverageScore: 0.8, HighQualityCount: 40,
	}}
	svc, _, _ := newMonitor(jobs, matches)

	// three checks with strictly declining matched counts
	for _, matched := range []int{60, 50, 40} {
		matches.stats.MatchedJobs = matched
		_, alerts, err := svc.RunHealthCheck(context.Background())
		require.NoError(t, err)
		if matched == 40 {
			require.Len(t, alerts, 1)
			assert.Equal(t, models.AlertDownwardTrend, alerts[0].Kind)
		} else {
			assert.Empty(t, alerts)
		}
	}
}

func TestHistoryBounded(t *testing.T) {
	jobs := &fakeJobs{total: 10}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 10, MatchedJobs: 8, AverageScore: 0.8, HighQualityCount: 5,
	}}
	svc, _, _ := newMonitor(jobs, matches, func(cfg *common.MonitorConfig) {
		cfg.HistorySize = 3
	})

	for i := 0; i < 5; i++ {
		_, _, err := svc.RunHealthCheck(context.Background())
		require.NoError(t, err)
	}
	assert.Len(t, svc.History(), 3)
}

func TestAutoRepairRematchesPendingJobs(t *testing.T) {
	jobs := &fakeJobs{
		total:     10,
		unmatched: []*models.Job{{JobID: "job_1"}, {JobID: "job_2"}},
	}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 10, MatchedJobs: 8, AverageScore: 0.8, HighQualityCount: 5,
	}}
	svc, matcher, _ := newMonitor(jobs, matches, func(cfg *common.MonitorConfig) {
		cfg.AutoRepair = true
		cfg.RepairBatchSize = 25
	})

	_, _, err := svc.RunHealthCheck(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, matcher.calls)
	assert.True(t, matcher.gotOpts.Persist)
	assert.Equal(t, 2, matcher.gotOpts.TopK)
	assert.Equal(t, "profile_live", jobs.gotProfileID)
	assert.Equal(t, 25, jobs.gotLimit)
}

func TestAutoRepairSkipsWhenNothingPending(t *testing.T) {
	jobs := &fakeJobs{total: 10}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 10, MatchedJobs: 8, AverageScore: 0.8, HighQualityCount: 5,
	}}
	svc, matcher, _ := newMonitor(jobs, matches, func(cfg *common.MonitorConfig) {
		cfg.AutoRepair = true
	})

	_, _, err := svc.RunHealthCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, matcher.calls)
}

func TestAutoRepairDisabledByDefault(t *testing.T) {
	jobs := &fakeJobs{total: 10, unmatched: []*models.Job{{JobID: "job_1"}}}
	matches := &fakeMatches{stats: models.MatchStats{
		TotalMatches: 10, MatchedJobs: 8, AverageScore: 0.8, HighQualityCount: 5,
	}}
	svc, matcher, _ := newMonitor(jobs, matches)

	_, _, err := svc.RunHealthCheck(context.Background())
	require.NoError(t, err)
	assert.Zero(t, matcher.calls)
}

func TestStartDisabledIsNoOp(t *testing.T) {
	svc, _, _ := newMonitor(&fakeJobs{}, &fakeMatches{}, func(cfg *common.MonitorConfig) {
		cfg.Enabled = false
	})
	require.NoError(t, svc.Start())
	svc.Stop()
}

func TestStartRejectsTooFrequentSchedule(t *testing.T) {
	svc, _, _ := newMonitor(&fakeJobs{}, &fakeMatches{}, func(cfg *common.MonitorConfig) {
		cfg.Enabled = true
		cfg.Cron = "@every 30s"
	})
	assert.Error(t, svc.Start())
}
