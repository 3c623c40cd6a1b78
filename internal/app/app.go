// -----------------------------------------------------------------------
// App - component container and lifecycle
// -----------------------------------------------------------------------

package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/services/browser"
	"github.com/ternarybob/venari/internal/services/chat"
	"github.com/ternarybob/venari/internal/services/embeddings"
	"github.com/ternarybob/venari/internal/services/llm"
	"github.com/ternarybob/venari/internal/services/login"
	"github.com/ternarybob/venari/internal/services/mailer"
	"github.com/ternarybob/venari/internal/services/matcher"
	"github.com/ternarybob/venari/internal/services/monitor"
	"github.com/ternarybob/venari/internal/services/parser"
	"github.com/ternarybob/venari/internal/services/pipeline"
	"github.com/ternarybob/venari/internal/services/refresh"
	"github.com/ternarybob/venari/internal/services/report"
	"github.com/ternarybob/venari/internal/services/resume"
	"github.com/ternarybob/venari/internal/services/retriever"
	"github.com/ternarybob/venari/internal/services/scorer"
	"github.com/ternarybob/venari/internal/services/session"
	"github.com/ternarybob/venari/internal/storage/sqlite"
	"github.com/ternarybob/venari/internal/storage/vector"
)

// App owns every long-lived component and wires them together. Cheap,
// offline components are built eagerly in New; anything that opens a
// browser, a badger directory, or a network client is built on first use so
// commands like `venari status` stay fast and dependency-free.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Store    *sqlite.Manager
	Jobs     interfaces.JobStorage
	Matches  interfaces.MatchStorage
	Sessions interfaces.SessionStore
	Parser   interfaces.PageParser
	Scorer   interfaces.Scorer
	Resume   interfaces.ResumeService
	Mailer   *mailer.Service
	Report   *report.Service
	LLM      *llm.Client // nil without an API key

	websiteName string
	website     common.WebsiteConfig
	websiteErr  error

	mu        sync.Mutex
	vectorDB  *vector.VectorDB
	index     interfaces.VectorIndex
	retriever interfaces.RetrieverService
	matcher   interfaces.MatcherService
	driver    *browser.Service
	pipeline  interfaces.CrawlerService
	monitor   interfaces.MonitorService
	cron      *cron.Cron
}

// New builds the container. The SQLite store opens here; the vector store,
// browser, and schedules wait until a command asks for them.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	store, err := sqlite.NewManager(logger, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open job store: %w", err)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Jobs:     store.JobStorage(),
		Matches:  store.MatchStorage(),
		Sessions: session.NewService(cfg.Mode.SessionFile, cfg.Mode.SessionTTL(), logger),
		Parser:   parser.NewService(&cfg.Selectors, logger),
		Scorer:   scorer.NewService(cfg, logger),
		Mailer:   mailer.NewService(cfg.Notify, logger),
		Report:   report.NewService(cfg.Report, logger),
	}

	a.websiteName, a.website, a.websiteErr = cfg.EnabledWebsite()
	if a.websiteErr != nil {
		// Only extraction and refresh need a website; everything else
		// keeps working.
		logger.Debug().Err(a.websiteErr).Msg("No enabled website configured")
	}

	if cfg.LLM.AnthropicAPIKey != "" {
		client, err := llm.NewClient(&cfg.LLM, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to build LLM client: %w", err)
		}
		a.LLM = client
	}

	var completer llm.Completer
	if a.LLM != nil {
		completer = a.LLM
	}
	a.Resume = resume.NewService(cfg.Resume, completer, logger)

	return a, nil
}

// Website returns the enabled website's name and config.
func (a *App) Website() (string, common.WebsiteConfig, error) {
	return a.websiteName, a.website, a.websiteErr
}

// VectorIndex opens the badger-backed vector store and embedder on first
// call. Later calls reuse the same index.
func (a *App) VectorIndex() (interfaces.VectorIndex, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vectorIndexLocked()
}

func (a *App) vectorIndexLocked() (interfaces.VectorIndex, error) {
	if a.index != nil {
		return a.index, nil
	}

	db, err := vector.NewVectorDB(a.Logger, &a.Config.RAGSystem.VectorDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(&a.Config.RAGSystem.VectorDB.Embeddings, a.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to build embedder: %w", err)
	}

	a.vectorDB = db
	a.index = embeddings.NewIndexer(embedder, vector.NewVectorStore(db, a.Logger), a.Jobs, a.Logger)
	return a.index, nil
}

// Retriever returns the time-aware retriever over the vector index.
func (a *App) Retriever() (interfaces.RetrieverService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.retrieverLocked()
}

func (a *App) retrieverLocked() (interfaces.RetrieverService, error) {
	if a.retriever != nil {
		return a.retriever, nil
	}
	index, err := a.vectorIndexLocked()
	if err != nil {
		return nil, err
	}
	a.retriever = retriever.NewService(index, a.Config.EffectiveTimeAware(), a.Logger)
	return a.retriever, nil
}

// Matcher returns the resume matcher, building the retrieval stack beneath
// it as needed.
func (a *App) Matcher() (interfaces.MatcherService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.matcherLocked()
}

func (a *App) matcherLocked() (interfaces.MatcherService, error) {
	if a.matcher != nil {
		return a.matcher, nil
	}
	ret, err := a.retrieverLocked()
	if err != nil {
		return nil, err
	}
	a.matcher = matcher.NewService(a.Config, ret, a.index, a.Jobs, a.Matches, a.Scorer, a.Logger)
	return a.matcher, nil
}

// Pipeline returns the extraction pipeline. Nothing starts here; the
// browser launches when the pipeline first runs.
func (a *App) Pipeline() (interfaces.CrawlerService, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pipelineLocked()
}

func (a *App) pipelineLocked() (interfaces.CrawlerService, error) {
	if a.pipeline != nil {
		return a.pipeline, nil
	}
	if a.websiteErr != nil {
		return nil, a.websiteErr
	}

	a.driver = browser.NewService(&a.Config.Browser, &a.Config.Crawler, a.Logger)
	controller := login.NewService(a.driver, a.Sessions, &a.website, &a.Config.Login, &a.Config.LoginMode, &a.Config.Mode, a.Logger)
	a.pipeline = pipeline.NewService(a.Config, a.websiteName, &a.website, a.driver, controller, a.Parser, a.Jobs, a.Logger)
	return a.pipeline, nil
}

// Refresh returns the HTTP detail-refresh service for the enabled website.
func (a *App) Refresh() (*refresh.Service, error) {
	if a.websiteErr != nil {
		return nil, a.websiteErr
	}
	return refresh.NewService(a.website.BaseURL, a.Config.Crawler, a.Jobs, a.Parser, a.Sessions, a.Logger), nil
}

// Chat returns the retrieval-augmented chat service. A broken vector stack
// degrades to context-free answers; a missing LLM key is a hard error.
func (a *App) Chat() (interfaces.ChatService, error) {
	if a.LLM == nil {
		return nil, fmt.Errorf("chat requires llm.anthropic_api_key (or ANTHROPIC_API_KEY)")
	}
	ret, err := a.Retriever()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Vector store unavailable, chat runs without corpus context")
		ret = nil
	}
	return chat.NewService(a.LLM, ret, a.Logger), nil
}

// StartSchedules begins the configured cron work: scheduled extraction and
// the health monitor. Disabled sections are silent no-ops.
func (a *App) StartSchedules(ctx context.Context) error {
	if a.Config.Schedule.Extraction.Enabled {
		if err := a.startExtractionSchedule(ctx); err != nil {
			return err
		}
	}
	return a.startMonitor()
}

func (a *App) startExtractionSchedule(ctx context.Context) error {
	spec := a.Config.Schedule.Extraction.Cron
	if err := common.ValidateScheduleSpec(spec); err != nil {
		return fmt.Errorf("invalid extraction schedule: %w", err)
	}

	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				a.Logger.Error().Str("panic", fmt.Sprint(r)).Msg("Scheduled extraction panicked")
			}
		}()

		p, err := a.Pipeline()
		if err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled extraction has no pipeline")
			return
		}
		if _, err := p.RunAllKeywords(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("Scheduled extraction failed")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule extraction: %w", err)
	}
	c.Start()

	a.mu.Lock()
	a.cron = c
	a.mu.Unlock()

	a.Logger.Info().Str("cron", spec).Msg("Extraction schedule started")
	return nil
}

func (a *App) startMonitor() error {
	cfg := a.Config.Schedule.Monitor
	if !cfg.Enabled {
		return nil
	}

	// The matcher is best effort here: without a vector store the monitor
	// still measures and alerts, it just cannot auto-repair.
	m, err := a.Matcher()
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Monitor runs without a matcher, auto-repair disabled")
		m = nil
	}

	var notifier monitor.Notifier
	if a.Mailer.Enabled() {
		notifier = a.Mailer
	}

	svc := monitor.NewService(cfg, a.Config.Resume.DefaultProfile, a.Jobs, a.Matches, m, a.Resume, notifier, a.Logger)
	if err := svc.Start(); err != nil {
		return err
	}

	a.mu.Lock()
	a.monitor = svc
	a.mu.Unlock()
	return nil
}

// Monitor returns the running health monitor, or nil before StartSchedules.
func (a *App) Monitor() interfaces.MonitorService {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.monitor
}

// Close tears components down in reverse dependency order. Safe to call
// after a partial start.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cron != nil {
		<-a.cron.Stop().Done()
		a.cron = nil
	}
	if a.monitor != nil {
		a.monitor.Stop()
		a.monitor = nil
	}
	if a.driver != nil {
		if err := a.driver.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Browser shutdown reported an error")
		}
		a.driver = nil
		a.pipeline = nil
	}
	if a.vectorDB != nil {
		if err := a.vectorDB.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Vector store close reported an error")
		}
		a.vectorDB = nil
		a.index = nil
		a.retriever = nil
		a.matcher = nil
	}

	if a.Store != nil {
		err := a.Store.Close()
		a.Store = nil
		return err
	}
	return nil
}
