// -----------------------------------------------------------------------
// Configuration - single loader normalizing every accepted shape.
// Precedence: defaults -> config files (in order) -> environment -> flags.
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/ternarybob/venari/internal/models"
)

// AppConfig identifies the installation.
type AppConfig struct {
	Name        string `yaml:"name" toml:"name"`
	Environment string `yaml:"environment" toml:"environment"`
	DataDir     string `yaml:"data_dir" toml:"data_dir"`
}

// LoggingConfig controls arbor output.
type LoggingConfig struct {
	Level     string   `yaml:"level" toml:"level" validate:"oneof=trace debug info warn error fatal"`
	Output    []string `yaml:"output" toml:"output"`
	Directory string   `yaml:"directory" toml:"directory"`
}

// DatabaseConfig locates and tunes the embedded SQL store.
type DatabaseConfig struct {
	Path          string `yaml:"path" toml:"path" validate:"required"`
	CacheSizeMB   int    `yaml:"cache_size_mb" toml:"cache_size_mb" validate:"min=1"`
	BusyTimeoutMS int    `yaml:"busy_timeout_ms" toml:"busy_timeout_ms" validate:"min=1"`
	WALMode       bool   `yaml:"wal_mode" toml:"wal_mode"`
}

// WebsiteConfig is the per-site contract.
type WebsiteConfig struct {
	Enabled              bool   `yaml:"enabled" toml:"enabled"`
	BaseURL              string `yaml:"base_url" toml:"base_url"`
	LoginURL             string `yaml:"login_url" toml:"login_url"`
	SearchURL            string `yaml:"search_url" toml:"search_url"`
	LoginCheckElement    string `yaml:"login_check_element" toml:"login_check_element"`
	SubmitButtonSelector string `yaml:"submit_button_selector" toml:"submit_button_selector"`
}

// BrowserConfig tunes the driver. Times are seconds.
type BrowserConfig struct {
	Headless           bool   `yaml:"headless" toml:"headless"`
	WindowSize         string `yaml:"window_size" toml:"window_size"` // "1920,1080"
	PageLoadTimeout    int    `yaml:"page_load_timeout" toml:"page_load_timeout" validate:"min=1"`
	ElementWaitTimeout int    `yaml:"element_wait_timeout" toml:"element_wait_timeout" validate:"min=1"`
	ImplicitWait       int    `yaml:"implicit_wait" toml:"implicit_wait" validate:"min=0"`
	ChromePath         string `yaml:"chrome_path" toml:"chrome_path"`
	KeepOpen           bool   `yaml:"keep_open" toml:"keep_open"` // leave the browser alive after a run
}

// PageLoadTimeoutDur returns the page load timeout as a duration.
func (b BrowserConfig) PageLoadTimeoutDur() time.Duration {
	return time.Duration(b.PageLoadTimeout) * time.Second
}

// ElementWaitTimeoutDur returns the element wait timeout as a duration.
func (b BrowserConfig) ElementWaitTimeoutDur() time.Duration {
	return time.Duration(b.ElementWaitTimeout) * time.Second
}

// Window parses WindowSize, falling back to 1920x1080.
func (b BrowserConfig) Window() models.WindowSize {
	parts := strings.Split(b.WindowSize, ",")
	if len(parts) == 2 {
		w, errW := strconv.Atoi(strings.TrimSpace(parts[0]))
		h, errH := strconv.Atoi(strings.TrimSpace(parts[1]))
		if errW == nil && errH == nil && w > 0 && h > 0 {
			return models.WindowSize{Width: w, Height: h}
		}
	}
	return models.WindowSize{Width: 1920, Height: 1080}
}

// CrawlerConfig paces page fetches. Delays are seconds.
type CrawlerConfig struct {
	RequestDelay   float64 `yaml:"request_delay" toml:"request_delay"`
	RandomDelay    float64 `yaml:"random_delay" toml:"random_delay"`
	MaxConcurrency int     `yaml:"max_concurrency" toml:"max_concurrency" validate:"min=1"`
	UserAgent      string  `yaml:"user_agent" toml:"user_agent"`
	HoverChance    float64 `yaml:"hover_chance" toml:"hover_chance" validate:"min=0,max=1"`
	PageRestMin    float64 `yaml:"page_rest_min" toml:"page_rest_min"`
	PageRestMax    float64 `yaml:"page_rest_max" toml:"page_rest_max"`
}

// RequestDelayDur returns the base inter-request delay.
func (c CrawlerConfig) RequestDelayDur() time.Duration {
	return time.Duration(c.RequestDelay * float64(time.Second))
}

// RandomDelayDur returns the jitter window added on top of the base delay.
func (c CrawlerConfig) RandomDelayDur() time.Duration {
	return time.Duration(c.RandomDelay * float64(time.Second))
}

// PageRestWindow returns the min and max rest taken between result pages.
func (c CrawlerConfig) PageRestWindow() (time.Duration, time.Duration) {
	min := time.Duration(c.PageRestMin * float64(time.Second))
	max := time.Duration(c.PageRestMax * float64(time.Second))
	if max < min {
		max = min
	}
	return min, max
}

// LoginConfig controls login-page polling. Times are seconds.
type LoginConfig struct {
	LoginURL          string   `yaml:"login_url" toml:"login_url"`
	WaitTimeout       int      `yaml:"wait_timeout" toml:"wait_timeout" validate:"min=1"`
	CheckInterval     int      `yaml:"check_interval" toml:"check_interval" validate:"min=1"`
	SuccessIndicators []string `yaml:"success_indicators" toml:"success_indicators"`
	FailureIndicators []string `yaml:"failure_indicators" toml:"failure_indicators"`
}

// LoginModeConfig is the login gate. Times are seconds.
type LoginModeConfig struct {
	Enabled                   bool `yaml:"enabled" toml:"enabled"`
	MaxLoginAttempts          int  `yaml:"max_login_attempts" toml:"max_login_attempts" validate:"min=1"`
	LoginRetryDelay           int  `yaml:"login_retry_delay" toml:"login_retry_delay" validate:"min=0"`
	SessionValidationInterval int  `yaml:"session_validation_interval" toml:"session_validation_interval" validate:"min=1"`
	AutoSaveSession           bool `yaml:"auto_save_session" toml:"auto_save_session"`
	RequireLoginForDetails    bool `yaml:"require_login_for_details" toml:"require_login_for_details"`
}

// ValidationIntervalDur returns the minimum spacing between real login checks.
func (l LoginModeConfig) ValidationIntervalDur() time.Duration {
	return time.Duration(l.SessionValidationInterval) * time.Second
}

// ModeConfig selects run flavor. session_timeout is seconds.
type ModeConfig struct {
	SkipLogin       bool   `yaml:"skip_login" toml:"skip_login"`
	UseSavedSession bool   `yaml:"use_saved_session" toml:"use_saved_session"`
	SessionFile     string `yaml:"session_file" toml:"session_file"`
	SessionTimeout  int    `yaml:"session_timeout" toml:"session_timeout" validate:"min=1"`
	CloseOnComplete bool   `yaml:"close_on_complete" toml:"close_on_complete"`
	Development     bool   `yaml:"development" toml:"development"`
	Debug           bool   `yaml:"debug" toml:"debug"`
}

// SessionTTL returns the session expiry window.
func (m ModeConfig) SessionTTL() time.Duration {
	return time.Duration(m.SessionTimeout) * time.Second
}

// SearchStrategyConfig bounds the pagination loop.
type SearchStrategyConfig struct {
	MaxPages             int     `yaml:"max_pages" toml:"max_pages" validate:"min=1"`
	EnablePagination     bool    `yaml:"enable_pagination" toml:"enable_pagination"`
	PageDelay            float64 `yaml:"page_delay" toml:"page_delay"`
	MaxResultsPerKeyword int     `yaml:"max_results_per_keyword" toml:"max_results_per_keyword" validate:"min=0"`
	ExtractDetails       bool    `yaml:"extract_details" toml:"extract_details"`
	SaveResults          bool    `yaml:"save_results" toml:"save_results"`
}

// SearchKeywordsConfig holds the priority keyword tiers.
type SearchKeywordsConfig struct {
	Priority1 []string `yaml:"priority_1" toml:"priority_1"`
	Priority2 []string `yaml:"priority_2" toml:"priority_2"`
	Priority3 []string `yaml:"priority_3" toml:"priority_3"`
}

// All returns the tiers flattened in priority order.
func (k SearchKeywordsConfig) All() []string {
	out := make([]string, 0, len(k.Priority1)+len(k.Priority2)+len(k.Priority3))
	out = append(out, k.Priority1...)
	out = append(out, k.Priority2...)
	out = append(out, k.Priority3...)
	return out
}

// SearchConfig drives URL building and the extraction loop.
type SearchConfig struct {
	BaseURL        string               `yaml:"base_url" toml:"base_url"`
	JobArea        string               `yaml:"job_area" toml:"job_area"`
	KeywordType    string               `yaml:"keyword_type" toml:"keyword_type"`
	SearchType     string               `yaml:"search_type" toml:"search_type"`
	CurrentKeyword string               `yaml:"current_keyword" toml:"current_keyword"`
	Keywords       SearchKeywordsConfig `yaml:"keywords" toml:"keywords"`
	Strategy       SearchStrategyConfig `yaml:"strategy" toml:"strategy"`
}

// FieldSelectors maps a parser field to its configured primary selector.
type FieldSelectors map[string]string

// SelectorsConfig carries the per-page selector contract.
type SelectorsConfig struct {
	SearchPage FieldSelectors `yaml:"search_page" toml:"search_page"`
	JobDetail  FieldSelectors `yaml:"job_detail" toml:"job_detail"`
}

// EmbeddingsConfig selects and tunes the embedding backend.
type EmbeddingsConfig struct {
	Model             string  `yaml:"model" toml:"model"`
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	LocalModelPath    string  `yaml:"local_model_path" toml:"local_model_path"`
	PerformanceLevel  string  `yaml:"performance_level" toml:"performance_level" validate:"oneof=fast balanced high"`
	ChineseOptimized  bool    `yaml:"chinese_optimized" toml:"chinese_optimized"`
	OfflineMode       bool    `yaml:"offline_mode" toml:"offline_mode"`
	CacheDirectory    string  `yaml:"cache_directory" toml:"cache_directory"`
	Dimension         int     `yaml:"dimension" toml:"dimension" validate:"min=1"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
	OfflineServerURL  string  `yaml:"offline_server_url" toml:"offline_server_url"`
}

// TimeAwareConfig tunes time-aware retrieval.
type TimeAwareConfig struct {
	EnableTimeBoost bool    `yaml:"enable_time_boost" toml:"enable_time_boost"`
	FreshDataBoost  float64 `yaml:"fresh_data_boost" toml:"fresh_data_boost"`
	FreshDataDays   int     `yaml:"fresh_data_days" toml:"fresh_data_days"`
	TimeDecayFactor float64 `yaml:"time_decay_factor" toml:"time_decay_factor"`
	SearchStrategy  string  `yaml:"search_strategy" toml:"search_strategy"`
}

// VectorDBConfig locates the vector store.
type VectorDBConfig struct {
	PersistDirectory string           `yaml:"persist_directory" toml:"persist_directory"`
	CollectionName   string           `yaml:"collection_name" toml:"collection_name"`
	Embeddings       EmbeddingsConfig `yaml:"embeddings" toml:"embeddings"`
	TimeAwareSearch  *TimeAwareConfig `yaml:"time_aware_search" toml:"time_aware_search"`
}

// RAGSystemConfig groups retrieval-side settings.
type RAGSystemConfig struct {
	VectorDB VectorDBConfig `yaml:"vector_db" toml:"vector_db"`
}

// AlgorithmConfig is one entry of the standard-shape weights list.
type AlgorithmConfig struct {
	Name    string  `yaml:"name" toml:"name"`
	Weight  float64 `yaml:"weight" toml:"weight"`
	Enabled bool    `yaml:"enabled" toml:"enabled"`
}

// ResumeMatchingConfig is the legacy/standard scorer shape.
type ResumeMatchingConfig struct {
	MatchingThreshold  float64           `yaml:"matching_threshold" toml:"matching_threshold"`
	MaxMatchesPerResume int              `yaml:"max_matches_per_resume" toml:"max_matches_per_resume"`
	Algorithms         []AlgorithmConfig `yaml:"algorithms" toml:"algorithms"`

	// Legacy flat block, lowest precedence.
	SemanticWeight   *float64 `yaml:"semantic_weight" toml:"semantic_weight"`
	SkillsWeight     *float64 `yaml:"skills_weight" toml:"skills_weight"`
	ExperienceWeight *float64 `yaml:"experience_weight" toml:"experience_weight"`
	IndustryWeight   *float64 `yaml:"industry_weight" toml:"industry_weight"`
	SalaryWeight     *float64 `yaml:"salary_weight" toml:"salary_weight"`
}

// MatchThresholdsConfig holds bucket cut points.
type MatchThresholdsConfig struct {
	Poor float64 `yaml:"poor" toml:"poor"`
}

// SkillTablesConfig overrides the scorer's built-in lookup tables. Entries
// merge over the defaults; omitted keys keep their built-in values.
type SkillTablesConfig struct {
	Weights           map[string]float64  `yaml:"weights" toml:"weights"`
	Synonyms          map[string][]string `yaml:"synonyms" toml:"synonyms"`
	Variants          map[string][]string `yaml:"variants" toml:"variants"`
	HighValue         map[string]int      `yaml:"high_value" toml:"high_value"`
	IndustryRelations map[string][]string `yaml:"industry_relations" toml:"industry_relations"`
}

// ResumeMatchingAdvanced is the preferred scorer shape; it beats the standard
// and legacy shapes wherever both are present.
type ResumeMatchingAdvanced struct {
	MatchingWeights   *models.MatchWeights  `yaml:"matching_weights" toml:"matching_weights"`
	MatchThresholds   MatchThresholdsConfig `yaml:"match_thresholds" toml:"match_thresholds"`
	DefaultSearchK    int                   `yaml:"default_search_k" toml:"default_search_k"`
	MaxResults        int                   `yaml:"max_results" toml:"max_results"`
	TimeAwareMatching *TimeAwareConfig      `yaml:"time_aware_matching" toml:"time_aware_matching"`
	SkillTables       *SkillTablesConfig    `yaml:"skill_tables" toml:"skill_tables"`
}

// ScheduleJobConfig is one scheduled job entry.
type ScheduleJobConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Cron    string `yaml:"cron" toml:"cron"`
}

// MonitorConfig tunes the health monitor.
type MonitorConfig struct {
	Enabled          bool    `yaml:"enabled" toml:"enabled"`
	Cron             string  `yaml:"cron" toml:"cron"`
	MinMatchRate     float64 `yaml:"min_match_rate" toml:"min_match_rate"`
	MinAvgScore      float64 `yaml:"min_avg_score" toml:"min_avg_score"`
	HighQualityRatio float64 `yaml:"high_quality_ratio" toml:"high_quality_ratio"`
	AutoRepair       bool    `yaml:"auto_repair" toml:"auto_repair"`
	RepairBatchSize  int     `yaml:"repair_batch_size" toml:"repair_batch_size"`
	HistorySize      int     `yaml:"history_size" toml:"history_size"`
}

// ScheduleConfig groups cron-driven work.
type ScheduleConfig struct {
	Extraction ScheduleJobConfig `yaml:"extraction" toml:"extraction"`
	Monitor    MonitorConfig     `yaml:"monitor" toml:"monitor"`
}

// NotifyConfig configures the SMTP digest.
type NotifyConfig struct {
	Enabled      bool     `yaml:"enabled" toml:"enabled"`
	SMTPHost     string   `yaml:"smtp_host" toml:"smtp_host"`
	SMTPPort     int      `yaml:"smtp_port" toml:"smtp_port"`
	SMTPUser     string   `yaml:"smtp_user" toml:"smtp_user"`
	SMTPPassword string   `yaml:"smtp_password" toml:"smtp_password"`
	From         string   `yaml:"from" toml:"from"`
	To           []string `yaml:"to" toml:"to"`
}

// ReportConfig controls exported match reports. FontPath names a TTF with
// CJK coverage for PDF output; the core fonts only cover latin text.
type ReportConfig struct {
	OutputDir string `yaml:"output_dir" toml:"output_dir"`
	FontPath  string `yaml:"font_path" toml:"font_path"`
}

// LLMConfig configures the resume-ingestion and chat model.
type LLMConfig struct {
	AnthropicAPIKey string `yaml:"anthropic_api_key" toml:"anthropic_api_key"`
	Model           string `yaml:"model" toml:"model"`
	MaxTokens       int    `yaml:"max_tokens" toml:"max_tokens" validate:"min=1"`
}

// ResumeConfig locates profiles.
type ResumeConfig struct {
	DefaultProfile string `yaml:"default_profile" toml:"default_profile"`
	ProfileDir     string `yaml:"profile_dir" toml:"profile_dir"`
}

// Config is the root configuration tree.
type Config struct {
	App             AppConfig                `yaml:"app" toml:"app"`
	Logging         LoggingConfig            `yaml:"logging" toml:"logging"`
	Database        DatabaseConfig           `yaml:"database" toml:"database"`
	Websites        map[string]WebsiteConfig `yaml:"websites" toml:"websites"`
	Browser         BrowserConfig            `yaml:"browser" toml:"browser"`
	Crawler         CrawlerConfig            `yaml:"crawler" toml:"crawler"`
	Login           LoginConfig              `yaml:"login" toml:"login"`
	LoginMode       LoginModeConfig          `yaml:"login_mode" toml:"login_mode"`
	Mode            ModeConfig               `yaml:"mode" toml:"mode"`
	Search          SearchConfig             `yaml:"search" toml:"search"`
	Selectors       SelectorsConfig          `yaml:"selectors" toml:"selectors"`
	RAGSystem       RAGSystemConfig          `yaml:"rag_system" toml:"rag_system"`
	ResumeMatching  ResumeMatchingConfig     `yaml:"resume_matching" toml:"resume_matching"`
	ResumeMatchingAdvanced ResumeMatchingAdvanced `yaml:"resume_matching_advanced" toml:"resume_matching_advanced"`
	TimeAwareSearch *TimeAwareConfig         `yaml:"time_aware_search" toml:"time_aware_search"`
	Schedule        ScheduleConfig           `yaml:"schedule" toml:"schedule"`
	Notify          NotifyConfig             `yaml:"notify" toml:"notify"`
	Report          ReportConfig             `yaml:"report" toml:"report"`
	LLM             LLMConfig                `yaml:"llm" toml:"llm"`
	Resume          ResumeConfig             `yaml:"resume" toml:"resume"`

	// Accepted alias for the browser section; earlier config files used the
	// driver name as the key.
	LegacySelenium *BrowserConfig `yaml:"selenium" toml:"selenium"`
}

// NewDefaultConfig returns the complete default tree. Every default named in
// the component contracts lives here, once.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "venari",
			Environment: "development",
			DataDir:     "data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		Database: DatabaseConfig{
			Path:          "data/jobs.db",
			CacheSizeMB:   64,
			BusyTimeoutMS: 5000,
			WALMode:       true,
		},
		Websites: map[string]WebsiteConfig{},
		Browser: BrowserConfig{
			Headless:           false,
			WindowSize:         "1920,1080",
			PageLoadTimeout:    30,
			ElementWaitTimeout: 10,
			ImplicitWait:       5,
		},
		Crawler: CrawlerConfig{
			RequestDelay:   2.0,
			RandomDelay:    1.5,
			MaxConcurrency: 1,
			HoverChance:    0.3,
			PageRestMin:    3.0,
			PageRestMax:    8.0,
		},
		Login: LoginConfig{
			WaitTimeout:   300,
			CheckInterval: 3,
			SuccessIndicators: []string{
				".user-name", ".username", ".user-info", ".avatar",
			},
			FailureIndicators: []string{
				".login-form", ".login-box", "#loginForm",
			},
		},
		LoginMode: LoginModeConfig{
			Enabled:                   true,
			MaxLoginAttempts:          3,
			LoginRetryDelay:           5,
			SessionValidationInterval: 300,
			AutoSaveSession:           true,
			RequireLoginForDetails:    true,
		},
		Mode: ModeConfig{
			UseSavedSession: true,
			SessionFile:     "data/session.json",
			SessionTimeout:  3600,
			CloseOnComplete: true,
		},
		Search: SearchConfig{
			JobArea:     "000000",
			KeywordType: "",
			SearchType:  "2",
			Strategy: SearchStrategyConfig{
				MaxPages:             5,
				EnablePagination:     true,
				PageDelay:            3.0,
				MaxResultsPerKeyword: 0,
				ExtractDetails:       true,
				SaveResults:          true,
			},
		},
		Selectors: SelectorsConfig{
			SearchPage: FieldSelectors{},
			JobDetail:  FieldSelectors{},
		},
		RAGSystem: RAGSystemConfig{
			VectorDB: VectorDBConfig{
				PersistDirectory: "chroma_db",
				CollectionName:   "job_positions",
				Embeddings: EmbeddingsConfig{
					Model:             "gemini-embedding-001",
					PerformanceLevel:  "balanced",
					ChineseOptimized:  true,
					CacheDirectory:    "data/model_cache",
					Dimension:         768,
					RequestsPerSecond: 2,
					OfflineServerURL:  "http://localhost:8081",
				},
			},
		},
		ResumeMatching: ResumeMatchingConfig{
			MatchingThreshold:   0.5,
			MaxMatchesPerResume: 20,
		},
		ResumeMatchingAdvanced: ResumeMatchingAdvanced{
			MatchThresholds: MatchThresholdsConfig{Poor: 0.5},
			DefaultSearchK:  50,
			MaxResults:      20,
		},
		Schedule: ScheduleConfig{
			Extraction: ScheduleJobConfig{Enabled: false, Cron: "0 */8 * * *"},
			Monitor: MonitorConfig{
				Enabled:          true,
				Cron:             "@every 6h",
				MinMatchRate:     0.15,
				MinAvgScore:      0.5,
				HighQualityRatio: 0.3,
				AutoRepair:       false,
				RepairBatchSize:  50,
				HistorySize:      100,
			},
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Report: ReportConfig{
			OutputDir: "reports",
		},
		LLM: LLMConfig{
			Model:     "claude-sonnet-4-5",
			MaxTokens: 4096,
		},
		Resume: ResumeConfig{
			ProfileDir: "data/profiles",
		},
	}
}

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([^}]*))?\}`)

// ExpandEnv substitutes ${NAME:default} patterns in raw config bytes. An
// unset variable without a default expands to the empty string.
func ExpandEnv(raw []byte) []byte {
	return envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		groups := envPattern.FindSubmatch(match)
		name := string(groups[1])
		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		return groups[2]
	})
}

// LoadFromFile loads a single configuration file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads defaults, merges each file in order (later files
// override earlier ones), applies environment overrides, then validates.
func LoadFromFiles(paths ...string) (*Config, error) {
	cfg := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		raw = ExpandEnv(raw)

		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			if err := toml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse TOML config %s: %w", path, err)
			}
		default:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config %s: %w", path, err)
			}
		}
	}

	cfg.normalizeAliases()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalizeAliases folds accepted legacy keys into their canonical sections.
func (c *Config) normalizeAliases() {
	if c.LegacySelenium != nil {
		c.Browser = *c.LegacySelenium
		c.LegacySelenium = nil
	}
	// The time-aware block is accepted in three positions; fold the nested
	// ones so EffectiveTimeAware has a single precedence walk.
	if c.TimeAwareSearch == nil && c.RAGSystem.VectorDB.TimeAwareSearch != nil {
		c.TimeAwareSearch = c.RAGSystem.VectorDB.TimeAwareSearch
	}
}

// applyEnvOverrides maps well-known VENARI_* variables onto the tree after
// file loading. These beat file values; flags beat these.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("VENARI_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VENARI_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("VENARI_HEADLESS"); v != "" {
		c.Browser.Headless = v == "true" || v == "1"
	}
	if v := os.Getenv("VENARI_SESSION_FILE"); v != "" {
		c.Mode.SessionFile = v
	}
	if v := os.Getenv("VENARI_KEYWORD"); v != "" {
		c.Search.CurrentKeyword = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.RAGSystem.VectorDB.Embeddings.APIKey == "" {
		c.RAGSystem.VectorDB.Embeddings.APIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && c.LLM.AnthropicAPIKey == "" {
		c.LLM.AnthropicAPIKey = v
	}
	if v := os.Getenv("VENARI_SMTP_PASSWORD"); v != "" {
		c.Notify.SMTPPassword = v
	}
}

// Validate checks structural constraints and cron expressions.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Schedule.Extraction.Enabled {
		if err := ValidateScheduleSpec(c.Schedule.Extraction.Cron); err != nil {
			return fmt.Errorf("invalid extraction schedule: %w", err)
		}
	}
	if c.Schedule.Monitor.Enabled {
		if err := ValidateScheduleSpec(c.Schedule.Monitor.Cron); err != nil {
			return fmt.Errorf("invalid monitor schedule: %w", err)
		}
	}
	return nil
}

// ValidateScheduleSpec parses a cron expression and enforces a 5-minute
// minimum interval for @every specs.
func ValidateScheduleSpec(spec string) error {
	if spec == "" {
		return fmt.Errorf("schedule is empty")
	}
	if strings.HasPrefix(spec, "@every ") {
		d, err := time.ParseDuration(strings.TrimPrefix(spec, "@every "))
		if err != nil {
			return fmt.Errorf("invalid @every duration: %w", err)
		}
		if d < 5*time.Minute {
			return fmt.Errorf("schedule interval %s below 5 minute minimum", d)
		}
		return nil
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return nil
}

// EffectiveMatchWeights resolves the scorer weights: advanced block beats the
// standard algorithms list beats the legacy flat block beats defaults. The
// result is always normalized to unit sum.
func (c *Config) EffectiveMatchWeights() models.MatchWeights {
	if w := c.ResumeMatchingAdvanced.MatchingWeights; w != nil && w.Sum() > 0 {
		return w.Normalize()
	}

	if len(c.ResumeMatching.Algorithms) > 0 {
		w := models.MatchWeights{}
		seen := false
		for _, algo := range c.ResumeMatching.Algorithms {
			if !algo.Enabled {
				continue
			}
			seen = true
			switch algo.Name {
			case "semantic_similarity", "semantic":
				w.SemanticSimilarity = algo.Weight
			case "skills_match", "skills":
				w.SkillsMatch = algo.Weight
			case "experience_match", "experience":
				w.ExperienceMatch = algo.Weight
			case "industry_match", "industry":
				w.IndustryMatch = algo.Weight
			case "salary_match", "salary":
				w.SalaryMatch = algo.Weight
			}
		}
		if seen && w.Sum() > 0 {
			return w.Normalize()
		}
	}

	legacy := c.ResumeMatching
	if legacy.SemanticWeight != nil || legacy.SkillsWeight != nil || legacy.ExperienceWeight != nil ||
		legacy.IndustryWeight != nil || legacy.SalaryWeight != nil {
		deref := func(p *float64) float64 {
			if p == nil {
				return 0
			}
			return *p
		}
		w := models.MatchWeights{
			SemanticSimilarity: deref(legacy.SemanticWeight),
			SkillsMatch:        deref(legacy.SkillsWeight),
			ExperienceMatch:    deref(legacy.ExperienceWeight),
			IndustryMatch:      deref(legacy.IndustryWeight),
			SalaryMatch:        deref(legacy.SalaryWeight),
		}
		if w.Sum() > 0 {
			return w.Normalize()
		}
	}

	return models.DefaultMatchWeights()
}

// EffectiveTimeAware resolves time-aware retrieval settings: the advanced
// matching block beats the top-level block beats defaults.
func (c *Config) EffectiveTimeAware() TimeAwareConfig {
	resolved := TimeAwareConfig{
		EnableTimeBoost: true,
		FreshDataBoost:  0.2,
		FreshDataDays:   7,
		TimeDecayFactor: 0.1,
		SearchStrategy:  "hybrid",
	}
	apply := func(t *TimeAwareConfig) {
		if t == nil {
			return
		}
		resolved.EnableTimeBoost = t.EnableTimeBoost
		if t.FreshDataBoost > 0 {
			resolved.FreshDataBoost = t.FreshDataBoost
		}
		if t.FreshDataDays > 0 {
			resolved.FreshDataDays = t.FreshDataDays
		}
		if t.TimeDecayFactor > 0 {
			resolved.TimeDecayFactor = t.TimeDecayFactor
		}
		if t.SearchStrategy != "" {
			resolved.SearchStrategy = t.SearchStrategy
		}
	}
	apply(c.TimeAwareSearch)
	apply(c.ResumeMatchingAdvanced.TimeAwareMatching)
	return resolved
}

// EnabledWebsite returns the first enabled website entry and its name.
func (c *Config) EnabledWebsite() (string, WebsiteConfig, error) {
	for name, site := range c.Websites {
		if site.Enabled {
			return name, site, nil
		}
	}
	return "", WebsiteConfig{}, fmt.Errorf("no enabled website configured")
}

// ApplyFlagOverrides maps command-line flags onto the loaded tree. Flags are
// the highest-priority source.
func ApplyFlagOverrides(cfg *Config, keyword string, maxPages int, headless *bool) {
	if keyword != "" {
		cfg.Search.CurrentKeyword = keyword
	}
	if maxPages > 0 {
		cfg.Search.Strategy.MaxPages = maxPages
	}
	if headless != nil {
		cfg.Browser.Headless = *headless
	}
}

// DeepCloneConfig returns an independent copy of the tree.
func DeepCloneConfig(cfg *Config) (*Config, error) {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize config: %w", err)
	}
	clone := &Config{}
	if err := yaml.Unmarshal(raw, clone); err != nil {
		return nil, fmt.Errorf("failed to clone config: %w", err)
	}
	return clone, nil
}
