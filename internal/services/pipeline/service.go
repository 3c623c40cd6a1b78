package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// ErrRunAborted wraps driver death mid-run. The caller may restart the
// browser and re-run; fingerprints make the retry idempotent.
var ErrRunAborted = errors.New("extraction run aborted")

// obstructedURLMarkers flag detail tabs that landed on an anti-bot page
// instead of a job posting.
var obstructedURLMarkers = []string{"captcha", "block", "error"}

// Service walks the configured search page by page, deduplicates rows by
// fingerprint, and click-fetches details for new jobs. One driver, one
// goroutine; concurrency would multiply the anti-bot surface for nothing.
type Service struct {
	driver      interfaces.BrowserDriver
	login       interfaces.LoginController
	parser      interfaces.PageParser
	jobs        interfaces.JobStorage
	websiteName string
	website     *common.WebsiteConfig
	browser     *common.BrowserConfig
	search      *common.SearchConfig
	crawler     *common.CrawlerConfig
	limiter     *RateLimiter
	logger      arbor.ILogger
}

// NewService wires the extraction pipeline. The website is the enabled site
// resolved by the caller.
func NewService(
	cfg *common.Config,
	websiteName string,
	website *common.WebsiteConfig,
	driver interfaces.BrowserDriver,
	login interfaces.LoginController,
	pageParser interfaces.PageParser,
	jobs interfaces.JobStorage,
	logger arbor.ILogger,
) interfaces.CrawlerService {
	return &Service{
		driver:      driver,
		login:       login,
		parser:      pageParser,
		jobs:        jobs,
		websiteName: websiteName,
		website:     website,
		browser:     &cfg.Browser,
		search:      &cfg.Search,
		crawler:     &cfg.Crawler,
		limiter:     NewRateLimiter(cfg.Crawler.RequestDelayDur(), cfg.Crawler.RandomDelayDur()),
		logger:      logger,
	}
}

var _ interfaces.CrawlerService = (*Service)(nil)

// RunExtraction harvests one keyword. An empty keyword falls back to the
// configured current keyword.
func (s *Service) RunExtraction(ctx context.Context, keyword string) (*models.ExtractionStats, error) {
	if keyword == "" {
		keyword = s.search.CurrentKeyword
	}
	if keyword == "" {
		return nil, errors.New("no search keyword configured")
	}

	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	defer s.finish()

	return s.extractKeyword(ctx, keyword)
}

// RunAllKeywords harvests every configured keyword tier in priority order.
// A keyword-level failure moves on; driver death ends the whole run.
func (s *Service) RunAllKeywords(ctx context.Context) ([]*models.ExtractionStats, error) {
	keywords := s.search.Keywords.All()
	if len(keywords) == 0 && s.search.CurrentKeyword != "" {
		keywords = []string{s.search.CurrentKeyword}
	}
	if len(keywords) == 0 {
		return nil, errors.New("no search keywords configured")
	}

	if err := s.prepare(ctx); err != nil {
		return nil, err
	}
	defer s.finish()

	var all []*models.ExtractionStats
	for i, keyword := range keywords {
		stats, err := s.extractKeyword(ctx, keyword)
		if stats != nil {
			all = append(all, stats)
		}
		if err != nil {
			if errors.Is(err, ErrRunAborted) || ctx.Err() != nil {
				return all, err
			}
			s.logger.Warn().Err(err).Str("keyword", keyword).Msg("Keyword extraction failed, moving on")
		}
		if i < len(keywords)-1 {
			if err := s.rest(ctx); err != nil {
				return all, err
			}
		}
	}
	return all, nil
}

// prepare brings up the driver and runs the login gate. Start is a no-op on
// a live browser, so repeated runs reuse it.
func (s *Service) prepare(ctx context.Context) error {
	if err := s.driver.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	if err := s.login.EnsureLoggedIn(ctx); err != nil {
		return fmt.Errorf("login gate failed: %w", err)
	}
	return nil
}

func (s *Service) finish() {
	if s.browser.KeepOpen {
		return
	}
	if err := s.driver.Stop(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to stop browser")
	}
}

func (s *Service) extractKeyword(ctx context.Context, keyword string) (*models.ExtractionStats, error) {
	stats := &models.ExtractionStats{Keyword: keyword, StartedAt: time.Now()}
	defer func() { stats.Elapsed = time.Since(stats.StartedAt) }()

	searchURL := s.BuildSearchURL(keyword)
	s.logger.Info().
		Str("keyword", keyword).
		Str("url", searchURL).
		Msg("Starting extraction")

	if err := s.limiter.Wait(ctx, searchURL); err != nil {
		return stats, s.abort(ctx, stats, err)
	}
	if err := s.driver.Navigate(ctx, searchURL); err != nil {
		return stats, s.abort(ctx, stats, fmt.Errorf("failed to open search page: %w", err))
	}

	maxPages := s.search.Strategy.MaxPages
	if maxPages < 1 || !s.search.Strategy.EnablePagination {
		maxPages = 1
	}
	budget := s.search.Strategy.MaxResultsPerKeyword

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return stats, s.abort(ctx, stats, err)
		}
		stats.PagesVisited++

		html, err := s.driver.HTML(ctx)
		if err != nil {
			return stats, s.abort(ctx, stats, fmt.Errorf("failed to snapshot page %d: %w", page, err))
		}

		if state := s.parser.ClassifyPage(html); state != models.PageStateNormal {
			stats.Aborted = true
			stats.AbortReason = string(state)
			s.logger.Warn().
				Str("keyword", keyword).
				Str("state", string(state)).
				Int("page", page).
				Msg("Search page unusable, ending keyword run")
			return stats, nil
		}

		parsed, err := s.parser.ParseSearchPage(html)
		if err != nil {
			s.logger.Warn().Err(err).Int("page", page).Msg("Failed to parse search page")
			return stats, nil
		}

		listings := parsed.Listings
		if budget > 0 {
			remaining := budget - stats.ListingsFound
			if remaining <= 0 {
				break
			}
			if len(listings) > remaining {
				listings = listings[:remaining]
			}
		}
		stats.ListingsFound += len(listings)
		if len(listings) == 0 {
			s.logger.Info().Int("page", page).Msg("No listings on page")
			break
		}

		if err := s.processPage(ctx, stats, parsed, listings, keyword); err != nil {
			return stats, s.abort(ctx, stats, err)
		}

		if budget > 0 && stats.ListingsFound >= budget {
			s.logger.Info().Int("budget", budget).Msg("Keyword result budget reached")
			break
		}
		if page == maxPages || !s.parser.HasNextPage(html) {
			break
		}

		moved, err := s.nextPage(ctx)
		if err != nil {
			return stats, s.abort(ctx, stats, err)
		}
		if !moved {
			break
		}
		if err := s.rest(ctx); err != nil {
			return stats, s.abort(ctx, stats, err)
		}
	}

	s.logger.Info().
		Str("keyword", keyword).
		Int("pages", stats.PagesVisited).
		Int("found", stats.ListingsFound).
		Int("new", stats.NewJobs).
		Int("duplicates", stats.Duplicates).
		Int("details", stats.DetailsFetched).
		Int("detail_failures", stats.DetailFailures).
		Msg("Keyword extraction complete")
	return stats, nil
}

// processPage deduplicates one page of listings and persists the new ones,
// click-fetching details when configured. Only driver-level failures return
// an error; per-row failures are counted and skipped.
func (s *Service) processPage(ctx context.Context, stats *models.ExtractionStats, page *models.SearchPage, listings []*models.JobListing, keyword string) error {
	fingerprints := make([]string, len(listings))
	for i, listing := range listings {
		fingerprints[i] = listing.Fingerprint
	}

	seen, err := s.jobs.BatchCheckFingerprints(ctx, fingerprints)
	if err != nil {
		// Insert-time dedup still holds; treat everything as new.
		s.logger.Error().Err(err).Msg("Fingerprint batch check failed")
		seen = map[string]bool{}
	}

	liveCount := 0
	needClicks := s.search.Strategy.SaveResults && s.search.Strategy.ExtractDetails
	if needClicks {
		liveCount, err = s.driver.Count(ctx, page.RowSelector)
		if err != nil {
			return fmt.Errorf("failed to re-collect rows: %w", err)
		}
	}

	for _, listing := range listings {
		if err := ctx.Err(); err != nil {
			return err
		}
		if seen[listing.Fingerprint] {
			stats.Duplicates++
			continue
		}
		if !s.search.Strategy.SaveResults {
			stats.NewJobs++
			continue
		}
		if !s.search.Strategy.ExtractDetails {
			s.saveListRow(ctx, stats, listing, keyword)
			continue
		}
		if listing.DOMIndex >= liveCount {
			s.logger.Warn().
				Int("dom_index", listing.DOMIndex).
				Int("live_rows", liveCount).
				Msg("Parsed rows diverged from live DOM, truncating page")
			break
		}
		if err := s.harvestDetail(ctx, stats, page.RowSelector, listing, keyword); err != nil {
			return err
		}
	}
	return nil
}

// saveListRow persists a list-only job together with the row-level fields
// that would otherwise be lost without a detail record.
func (s *Service) saveListRow(ctx context.Context, stats *models.ExtractionStats, listing *models.JobListing, keyword string) {
	job := models.NewJob(listing.Title, listing.Company, listing.DetailURL, s.websiteName)
	job.Fingerprint = listing.Fingerprint

	inserted, err := s.jobs.SaveJob(ctx, job)
	if err != nil {
		s.logger.Error().Err(err).Str("title", listing.Title).Msg("Failed to save job row")
		return
	}
	if !inserted {
		stats.Duplicates++
		return
	}
	stats.NewJobs++

	if err := s.jobs.SaveJobDetail(ctx, listingDetail(job.JobID, keyword, listing)); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to save list-level detail")
	}
}

// harvestDetail persists the list row, then opens the row's detail in a new
// tab and persists the merged detail record. The list row survives any
// detail-level failure. Returns an error only when the run cannot continue.
func (s *Service) harvestDetail(ctx context.Context, stats *models.ExtractionStats, rowSelector string, listing *models.JobListing, keyword string) error {
	job := models.NewJob(listing.Title, listing.Company, listing.DetailURL, s.websiteName)
	job.Fingerprint = listing.Fingerprint

	inserted, err := s.jobs.SaveJob(ctx, job)
	if err != nil {
		s.logger.Error().Err(err).Str("title", listing.Title).Msg("Failed to save job row")
		return nil
	}
	if !inserted {
		stats.Duplicates++
		return nil
	}
	stats.NewJobs++

	if err := s.driver.ScrollIntoView(ctx, rowSelector, listing.DOMIndex); err != nil {
		s.logger.Debug().Err(err).Int("row", listing.DOMIndex).Msg("Scroll into view failed")
	}
	if s.crawler.HoverChance > 0 && rand.Float64() < s.crawler.HoverChance {
		if err := s.driver.Hover(ctx, rowSelector, listing.DOMIndex); err != nil {
			s.logger.Debug().Err(err).Int("row", listing.DOMIndex).Msg("Hover failed")
		}
	}

	// The list row is already persisted; a dead session must not cost it.
	if err := s.login.ValidateBeforeDetails(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("login gate failed before detail fetch: %w", err)
	}

	if err := s.limiter.Wait(ctx, s.website.BaseURL); err != nil {
		return err
	}

	html, detailURL, err := s.driver.ClickOpensTab(ctx, rowSelector, listing.DOMIndex, s.browser.PageLoadTimeoutDur())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !s.driver.Healthy(ctx) {
			return fmt.Errorf("%w: %v", ErrRunAborted, err)
		}
		stats.DetailFailures++
		s.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("Detail click-through failed")
		return nil
	}

	if obstructedURL(detailURL) {
		stats.DetailFailures++
		s.logger.Warn().Str("job_id", job.JobID).Str("url", detailURL).Msg("Detail landed on an obstruction page")
		return nil
	}

	// The tab's address is the canonical URL; row hrefs are often JS routes.
	listing.DetailURL = detailURL
	if err := s.jobs.UpdateJobDetailURL(ctx, job.JobID, detailURL); err != nil {
		s.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to record detail URL")
	}

	if state := s.parser.ClassifyPage(html); state != models.PageStateNormal {
		stats.DetailFailures++
		s.logger.Warn().Str("job_id", job.JobID).Str("state", string(state)).Msg("Detail page unusable")
		return nil
	}

	detail, err := s.parser.ParseJobDetail(html, job.JobID)
	if err != nil {
		stats.DetailFailures++
		s.logger.Warn().Err(err).Str("job_id", job.JobID).Msg("Detail parse failed")
		return nil
	}

	mergeListing(detail, listing)
	detail.Keyword = keyword

	if err := s.jobs.SaveJobDetail(ctx, detail); err != nil {
		stats.DetailFailures++
		s.logger.Error().Err(err).Str("job_id", job.JobID).Msg("Failed to save job detail")
		return nil
	}
	stats.DetailsFetched++
	return nil
}

// nextPage clicks the first present next-page control.
func (s *Service) nextPage(ctx context.Context) (bool, error) {
	if err := s.limiter.Wait(ctx, s.website.BaseURL); err != nil {
		return false, err
	}
	for _, selector := range s.parser.NextPageSelectors() {
		exists, err := s.driver.Exists(ctx, selector)
		if err != nil {
			return false, fmt.Errorf("failed to probe next-page control: %w", err)
		}
		if !exists {
			continue
		}
		if err := s.driver.Click(ctx, selector); err != nil {
			if ctx.Err() != nil {
				return false, ctx.Err()
			}
			s.logger.Warn().Err(err).Str("selector", selector).Msg("Next-page click failed")
			continue
		}
		return true, nil
	}
	return false, nil
}

// rest sleeps out the configured page delay plus a random rest window.
func (s *Service) rest(ctx context.Context) error {
	wait := time.Duration(s.search.Strategy.PageDelay * float64(time.Second))
	min, max := s.crawler.PageRestWindow()
	wait += min
	if span := max - min; span > 0 {
		wait += time.Duration(rand.Int63n(int64(span)))
	}
	if wait <= 0 {
		return nil
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// abort records why a keyword run died and classifies driver death.
func (s *Service) abort(ctx context.Context, stats *models.ExtractionStats, err error) error {
	stats.Aborted = true
	stats.AbortReason = err.Error()
	if errors.Is(err, ErrRunAborted) || ctx.Err() != nil {
		return err
	}
	if !s.driver.Healthy(ctx) {
		return fmt.Errorf("%w: %v", ErrRunAborted, err)
	}
	return err
}

// BuildSearchURL renders the site search URL for one keyword.
func (s *Service) BuildSearchURL(keyword string) string {
	base := s.search.BaseURL
	if base == "" {
		base = s.website.SearchURL
	}
	return fmt.Sprintf("%s?jobArea=%s&keyword=%s&searchType=%s&keywordType=%s",
		base,
		url.QueryEscape(s.search.JobArea),
		url.QueryEscape(keyword),
		url.QueryEscape(s.search.SearchType),
		url.QueryEscape(s.search.KeywordType))
}

// mergeListing fills detail fields the detail page did not provide from the
// list row.
func mergeListing(detail *models.JobDetail, listing *models.JobListing) {
	if detail.Salary == "" {
		detail.Salary = listing.Salary
	}
	if detail.Location == "" {
		detail.Location = listing.Location
	}
	if detail.Experience == "" {
		detail.Experience = listing.Experience
	}
	if detail.Education == "" {
		detail.Education = listing.Education
	}
	if detail.PublishTime == "" {
		detail.PublishTime = listing.PublishTime
	}
}

// listingDetail builds the partial detail record saved in list-only mode.
func listingDetail(jobID, keyword string, listing *models.JobListing) *models.JobDetail {
	return &models.JobDetail{
		JobID:       jobID,
		Salary:      listing.Salary,
		Location:    listing.Location,
		Experience:  listing.Experience,
		Education:   listing.Education,
		PublishTime: listing.PublishTime,
		Keyword:     keyword,
	}
}

func obstructedURL(raw string) bool {
	lower := strings.ToLower(raw)
	for _, marker := range obstructedURLMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
