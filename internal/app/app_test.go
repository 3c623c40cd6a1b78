package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
)

func testConfig(t *testing.T) *common.Config {
	t.Helper()
	tmp := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Database.Path = filepath.Join(tmp, "jobs.db")
	cfg.Mode.SessionFile = filepath.Join(tmp, "session.json")
	cfg.RAGSystem.VectorDB.PersistDirectory = filepath.Join(tmp, "vectors")
	cfg.Resume.ProfileDir = filepath.Join(tmp, "profiles")
	cfg.Report.OutputDir = filepath.Join(tmp, "reports")
	cfg.Logging.Directory = filepath.Join(tmp, "logs")
	return cfg
}

func TestNewBuildsEagerComponents(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Jobs)
	assert.NotNil(t, a.Matches)
	assert.NotNil(t, a.Sessions)
	assert.NotNil(t, a.Parser)
	assert.NotNil(t, a.Scorer)
	assert.NotNil(t, a.Resume)
	assert.NotNil(t, a.Mailer)
	assert.NotNil(t, a.Report)
	assert.Nil(t, a.LLM, "no API key, no client")
}

func TestWebsiteErrorsWithoutEnabledSite(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	_, _, err = a.Website()
	assert.Error(t, err)

	// Extraction and refresh surface the same error.
	_, err = a.Pipeline()
	assert.Error(t, err)
	_, err = a.Refresh()
	assert.Error(t, err)
}

func TestPipelineBuildsWithEnabledSite(t *testing.T) {
	cfg := testConfig(t)
	cfg.Websites = map[string]common.WebsiteConfig{
		"job51": {
			Enabled:   true,
			BaseURL:   "https://we.51job.com",
			SearchURL: "https://we.51job.com/pc/search",
		},
	}

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	name, site, err := a.Website()
	require.NoError(t, err)
	assert.Equal(t, "job51", name)
	assert.Equal(t, "https://we.51job.com", site.BaseURL)

	// Construction alone never launches the browser.
	p, err := a.Pipeline()
	require.NoError(t, err)
	assert.NotNil(t, p)

	again, err := a.Pipeline()
	require.NoError(t, err)
	assert.Same(t, p, again)

	r, err := a.Refresh()
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestChatRequiresLLM(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Chat()
	assert.Error(t, err)
}

func TestStartSchedulesDisabledIsNoOp(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.StartSchedules(context.Background()))
	assert.Nil(t, a.Monitor())
}

func TestStartSchedulesRejectsBadCron(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Extraction.Enabled = true
	cfg.Schedule.Extraction.Cron = "not a cron spec"

	a, err := New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	assert.Error(t, a.StartSchedules(context.Background()))
}

func TestCloseIsIdempotentAfterPartialStart(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)

	require.NoError(t, a.Close())
	require.NoError(t, a.Close())
}
