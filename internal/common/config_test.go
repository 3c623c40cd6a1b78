package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/venari/internal/models"
)

func writeTempConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "venari", cfg.App.Name)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 3600, cfg.Mode.SessionTimeout)
	assert.Equal(t, 300, cfg.LoginMode.SessionValidationInterval)
	assert.Equal(t, 30, cfg.Browser.PageLoadTimeout)
	assert.Equal(t, "gemini-embedding-001", cfg.RAGSystem.VectorDB.Embeddings.Model)
	assert.Equal(t, 768, cfg.RAGSystem.VectorDB.Embeddings.Dimension)
	assert.Equal(t, 50, cfg.ResumeMatchingAdvanced.DefaultSearchK)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromFilesMergesInOrder(t *testing.T) {
	base := writeTempConfig(t, "base.yaml", `
app:
  name: venari
logging:
  level: debug
search:
  current_keyword: golang
`)
	override := writeTempConfig(t, "override.yaml", `
logging:
  level: warn
`)

	cfg, err := LoadFromFiles(base, override)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level, "later file should win")
	assert.Equal(t, "golang", cfg.Search.CurrentKeyword, "earlier value should survive when not overridden")
	assert.Equal(t, "data/jobs.db", cfg.Database.Path, "defaults should survive when no file sets them")
}

func TestLoadFromFilesTOML(t *testing.T) {
	path := writeTempConfig(t, "venari.toml", `
[logging]
level = "error"

[database]
path = "alt/jobs.db"
`)
	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, "alt/jobs.db", cfg.Database.Path)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("VENARI_TEST_VALUE", "from-env")

	out := string(ExpandEnv([]byte("key: ${VENARI_TEST_VALUE}")))
	assert.Equal(t, "key: from-env", out)

	out = string(ExpandEnv([]byte("key: ${VENARI_TEST_UNSET:fallback}")))
	assert.Equal(t, "key: fallback", out)

	out = string(ExpandEnv([]byte("key: ${VENARI_TEST_UNSET}")))
	assert.Equal(t, "key: ", out)
}

func TestSeleniumAliasFoldsIntoBrowser(t *testing.T) {
	path := writeTempConfig(t, "legacy.yaml", `
selenium:
  headless: true
  window_size: "1280,720"
  page_load_timeout: 45
  element_wait_timeout: 12
  implicit_wait: 2
`)
	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 45, cfg.Browser.PageLoadTimeout)
	assert.Equal(t, models.WindowSize{Width: 1280, Height: 720}, cfg.Browser.Window())
	assert.Nil(t, cfg.LegacySelenium)
}

func TestEffectiveMatchWeightsPrecedence(t *testing.T) {
	t.Run("defaults when nothing configured", func(t *testing.T) {
		cfg := NewDefaultConfig()
		w := cfg.EffectiveMatchWeights()
		assert.InDelta(t, 0.40, w.SemanticSimilarity, 1e-9)
		assert.InDelta(t, 0.45, w.SkillsMatch, 1e-9)
		assert.InDelta(t, 1.0, w.Sum(), 1e-9)
	})

	t.Run("advanced block wins", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.ResumeMatchingAdvanced.MatchingWeights = &models.MatchWeights{
			SemanticSimilarity: 2, SkillsMatch: 2,
		}
		half := 0.9
		cfg.ResumeMatching.SemanticWeight = &half

		w := cfg.EffectiveMatchWeights()
		assert.InDelta(t, 0.5, w.SemanticSimilarity, 1e-9)
		assert.InDelta(t, 0.5, w.SkillsMatch, 1e-9)
		assert.InDelta(t, 0.0, w.ExperienceMatch, 1e-9)
	})

	t.Run("algorithms list beats legacy flat", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.ResumeMatching.Algorithms = []AlgorithmConfig{
			{Name: "semantic_similarity", Weight: 1, Enabled: true},
			{Name: "skills_match", Weight: 3, Enabled: true},
			{Name: "salary_match", Weight: 5, Enabled: false},
		}
		legacy := 0.9
		cfg.ResumeMatching.SkillsWeight = &legacy

		w := cfg.EffectiveMatchWeights()
		assert.InDelta(t, 0.25, w.SemanticSimilarity, 1e-9)
		assert.InDelta(t, 0.75, w.SkillsMatch, 1e-9)
		assert.InDelta(t, 0.0, w.SalaryMatch, 1e-9, "disabled algorithm should not contribute")
	})

	t.Run("weights always normalize to unit sum", func(t *testing.T) {
		cfg := NewDefaultConfig()
		cfg.ResumeMatchingAdvanced.MatchingWeights = &models.MatchWeights{
			SemanticSimilarity: 4, SkillsMatch: 4, ExperienceMatch: 1, IndustryMatch: 0.5, SalaryMatch: 0.5,
		}
		assert.InDelta(t, 1.0, cfg.EffectiveMatchWeights().Sum(), 1e-9)
	})
}

func TestEffectiveTimeAwarePrecedence(t *testing.T) {
	cfg := NewDefaultConfig()
	ta := cfg.EffectiveTimeAware()
	assert.True(t, ta.EnableTimeBoost)
	assert.InDelta(t, 0.2, ta.FreshDataBoost, 1e-9)
	assert.Equal(t, 7, ta.FreshDataDays)
	assert.InDelta(t, 0.1, ta.TimeDecayFactor, 1e-9)
	assert.Equal(t, "hybrid", ta.SearchStrategy)

	cfg.TimeAwareSearch = &TimeAwareConfig{EnableTimeBoost: true, FreshDataDays: 14, SearchStrategy: "balanced"}
	ta = cfg.EffectiveTimeAware()
	assert.Equal(t, 14, ta.FreshDataDays)
	assert.Equal(t, "balanced", ta.SearchStrategy)
	assert.InDelta(t, 0.2, ta.FreshDataBoost, 1e-9, "unset fields keep defaults")

	cfg.ResumeMatchingAdvanced.TimeAwareMatching = &TimeAwareConfig{EnableTimeBoost: true, SearchStrategy: "fresh_first", FreshDataBoost: 0.3}
	ta = cfg.EffectiveTimeAware()
	assert.Equal(t, "fresh_first", ta.SearchStrategy, "advanced matching block wins")
	assert.InDelta(t, 0.3, ta.FreshDataBoost, 1e-9)
	assert.Equal(t, 14, ta.FreshDataDays, "fields the winner leaves unset fall through")
}

func TestValidateScheduleSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantErr bool
	}{
		{"standard five field", "0 */8 * * *", false},
		{"descriptor", "@daily", false},
		{"every above minimum", "@every 6h", false},
		{"every at minimum", "@every 5m", false},
		{"every below minimum", "@every 30s", true},
		{"empty", "", true},
		{"garbage", "not a cron", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScheduleSpec(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VENARI_LOG_LEVEL", "trace")
	t.Setenv("VENARI_DB_PATH", "env/jobs.db")

	path := writeTempConfig(t, "env.yaml", `
logging:
  level: info
`)
	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "trace", cfg.Logging.Level, "environment should beat file")
	assert.Equal(t, "env/jobs.db", cfg.Database.Path)
}

func TestEnabledWebsite(t *testing.T) {
	cfg := NewDefaultConfig()
	_, _, err := cfg.EnabledWebsite()
	assert.Error(t, err)

	cfg.Websites = map[string]WebsiteConfig{
		"example": {Enabled: false},
		"target":  {Enabled: true, BaseURL: "https://jobs.example.com"},
	}
	name, site, err := cfg.EnabledWebsite()
	require.NoError(t, err)
	assert.Equal(t, "target", name)
	assert.Equal(t, "https://jobs.example.com", site.BaseURL)
}

func TestDeepCloneConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Search.CurrentKeyword = "golang"

	clone, err := DeepCloneConfig(cfg)
	require.NoError(t, err)

	clone.Search.CurrentKeyword = "rust"
	assert.Equal(t, "golang", cfg.Search.CurrentKeyword)
	assert.Equal(t, "rust", clone.Search.CurrentKeyword)
}
