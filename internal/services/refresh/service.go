// -----------------------------------------------------------------------
// Detail refresh - re-harvest stored detail URLs over plain HTTP
// -----------------------------------------------------------------------

package refresh

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

const (
	defaultStaleAfter = 7 * 24 * time.Hour
	defaultBatchLimit = 100
	requestTimeout    = 30 * time.Second

	ctxJobID = "job_id"
)

// Options tunes one refresh pass. Zero values take the defaults.
type Options struct {
	StaleAfter time.Duration // details older than this are re-fetched
	Limit      int           // max candidates per pass
}

// Stats summarizes one refresh pass.
type Stats struct {
	Candidates int           `json:"candidates"`
	Refreshed  int           `json:"refreshed"`
	Obstructed int           `json:"obstructed"` // captcha, block, or error pages
	Failures   int           `json:"failures"`
	Elapsed    time.Duration `json:"elapsed"`
}

func (s Stats) String() string {
	return fmt.Sprintf("candidates=%d refreshed=%d obstructed=%d failures=%d elapsed=%s",
		s.Candidates, s.Refreshed, s.Obstructed, s.Failures, s.Elapsed.Round(time.Millisecond))
}

// counters collects results from concurrent collector callbacks.
type counters struct {
	mu         sync.Mutex
	refreshed  int
	obstructed int
	failures   int
}

func (c *counters) add(field *int) {
	c.mu.Lock()
	*field++
	c.mu.Unlock()
}

// Service re-fetches detail pages for jobs whose detail row is missing,
// description-less, or stale. Once a URL is known the browser is no longer
// needed; the stored session cookies ride along on plain HTTP requests.
type Service struct {
	baseURL  string
	crawler  common.CrawlerConfig
	jobs     interfaces.JobStorage
	parser   interfaces.PageParser
	sessions interfaces.SessionStore
	logger   arbor.ILogger
}

// NewService wires the refresh service for one website.
func NewService(baseURL string, crawler common.CrawlerConfig, jobs interfaces.JobStorage,
	parser interfaces.PageParser, sessions interfaces.SessionStore, logger arbor.ILogger) *Service {
	return &Service{
		baseURL:  baseURL,
		crawler:  crawler,
		jobs:     jobs,
		parser:   parser,
		sessions: sessions,
		logger:   logger,
	}
}

// Run executes one refresh pass and returns its stats.
func (s *Service) Run(ctx context.Context, opts Options) (*Stats, error) {
	staleAfter := opts.StaleAfter
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultBatchLimit
	}

	started := time.Now()

	candidates, err := s.jobs.GetJobsNeedingRefresh(ctx, time.Now().Add(-staleAfter), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select refresh candidates: %w", err)
	}
	if len(candidates) == 0 {
		s.logger.Info().Msg("No details need refreshing")
		return &Stats{Elapsed: time.Since(started)}, nil
	}

	tally := &counters{}
	collector, err := s.newCollector(ctx, tally)
	if err != nil {
		return nil, err
	}

	for _, job := range candidates {
		if ctx.Err() != nil {
			break
		}
		target, err := absoluteURL(s.baseURL, job.URL)
		if err != nil {
			tally.add(&tally.failures)
			s.logger.Warn().Err(err).Str("job", job.JobID).Str("url", job.URL).Msg("Unresolvable detail URL")
			continue
		}
		cctx := colly.NewContext()
		cctx.Put(ctxJobID, job.JobID)
		if err := collector.Request(http.MethodGet, target, nil, cctx, nil); err != nil {
			tally.add(&tally.failures)
			s.logger.Warn().Err(err).Str("job", job.JobID).Msg("Detail request failed to enqueue")
		}
	}
	collector.Wait()

	stats := &Stats{
		Candidates: len(candidates),
		Refreshed:  tally.refreshed,
		Obstructed: tally.obstructed,
		Failures:   tally.failures,
		Elapsed:    time.Since(started),
	}
	s.logger.Info().
		Int("candidates", stats.Candidates).
		Int("refreshed", stats.Refreshed).
		Int("obstructed", stats.Obstructed).
		Int("failures", stats.Failures).
		Msg("Detail refresh finished")
	return stats, ctx.Err()
}

// newCollector builds the colly collector: async with the configured
// parallelism and delays, session cookies seeded against the site root.
func (s *Service) newCollector(ctx context.Context, tally *counters) (*colly.Collector, error) {
	opts := []colly.CollectorOption{
		colly.Async(true),
		colly.MaxDepth(1),
		colly.IgnoreRobotsTxt(),
	}
	if s.crawler.UserAgent != "" {
		opts = append(opts, colly.UserAgent(s.crawler.UserAgent))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(requestTimeout)
	c.WithTransport(&contextTransport{base: http.DefaultTransport, ctx: ctx})

	parallelism := s.crawler.MaxConcurrency
	if parallelism < 1 {
		parallelism = 1
	}
	if err := c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: parallelism,
		Delay:       s.crawler.RequestDelayDur(),
		RandomDelay: s.crawler.RandomDelayDur(),
	}); err != nil {
		return nil, fmt.Errorf("failed to configure rate limit: %w", err)
	}

	s.seedCookies(c)

	c.OnResponse(func(r *colly.Response) {
		s.handleResponse(ctx, r, tally)
	})
	c.OnError(func(r *colly.Response, err error) {
		tally.add(&tally.failures)
		jobID := ""
		if r != nil && r.Ctx != nil {
			jobID = r.Ctx.Get(ctxJobID)
		}
		s.logger.Warn().Err(err).Str("job", jobID).Msg("Detail fetch failed")
	})
	return c, nil
}

// seedCookies loads the stored browser session and registers its cookies
// against the site root. No session means anonymous fetches, which the site
// may answer with a login wall; those pages fail page classification and are
// skipped rather than stored.
func (s *Service) seedCookies(c *colly.Collector) {
	if s.sessions == nil {
		return
	}
	data, err := s.sessions.Load()
	if err != nil || data == nil {
		s.logger.Warn().Msg("No browser session available, refreshing anonymously")
		return
	}
	if !s.sessions.Valid(data) {
		s.logger.Warn().
			Str("age", data.Age().Round(time.Second).String()).
			Msg("Session past TTL, seeding its cookies anyway")
	}
	cookies := httpCookies(data)
	if len(cookies) == 0 {
		return
	}
	if err := c.SetCookies(s.baseURL, cookies); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to seed session cookies")
		return
	}
	s.logger.Info().Int("cookies", len(cookies)).Msg("Session cookies seeded")
}

func (s *Service) handleResponse(ctx context.Context, r *colly.Response, tally *counters) {
	jobID := r.Ctx.Get(ctxJobID)
	html := string(r.Body)

	if state := s.parser.ClassifyPage(html); state != models.PageStateNormal {
		tally.add(&tally.obstructed)
		s.logger.Warn().Str("job", jobID).Str("state", string(state)).Msg("Detail page obstructed, skipping")
		return
	}

	detail, err := s.parser.ParseJobDetail(html, jobID)
	if err != nil {
		tally.add(&tally.failures)
		s.logger.Warn().Err(err).Str("job", jobID).Msg("Detail parse failed")
		return
	}

	// the search keyword is listing-time knowledge; carry it forward
	if detail.Keyword == "" {
		if prev, err := s.jobs.GetJobDetail(ctx, jobID); err == nil && prev != nil {
			detail.Keyword = prev.Keyword
		}
	}
	detail.ExtractedAt = time.Now()

	if err := s.jobs.SaveJobDetail(ctx, detail); err != nil {
		tally.add(&tally.failures)
		s.logger.Warn().Err(err).Str("job", jobID).Msg("Detail save failed")
		return
	}
	tally.add(&tally.refreshed)
	s.logger.Debug().Str("job", jobID).Msg("Detail refreshed")
}

// httpCookies converts session cookies to net/http cookies. Nameless entries
// are dropped; a zero expiry becomes a session cookie.
func httpCookies(data *models.SessionData) []*http.Cookie {
	out := make([]*http.Cookie, 0, len(data.Cookies))
	for _, c := range data.Cookies {
		if c.Name == "" {
			continue
		}
		cookie := &http.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expires = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, cookie)
	}
	return out
}

// absoluteURL resolves a possibly relative detail URL against the site root.
func absoluteURL(base, ref string) (string, error) {
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if refURL.IsAbs() {
		return ref, nil
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(refURL).String(), nil
}

// contextTransport makes collector requests honor the pass context, so a
// cancelled refresh stops in-flight fetches too.
type contextTransport struct {
	base http.RoundTripper
	ctx  context.Context
}

func (t *contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	select {
	case <-t.ctx.Done():
		return nil, t.ctx.Err()
	default:
	}
	return t.base.RoundTrip(req.WithContext(t.ctx))
}
