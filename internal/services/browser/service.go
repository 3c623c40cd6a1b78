package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

// ErrDriverDead means the managed browser is gone and the service must be
// restarted before further page work.
var ErrDriverDead = fmt.Errorf("browser driver is not running")

// Service owns one Chrome instance for the whole run. Manual login needs a
// visible window the operator can type into, so there is no instance pool.
type Service struct {
	config *common.BrowserConfig
	logger arbor.ILogger

	userAgent string

	allocCancel   context.CancelFunc
	browserCancel context.CancelFunc
	browserCtx    context.Context
	running       bool
}

// NewService creates the browser driver. Start must be called before use.
func NewService(config *common.BrowserConfig, crawler *common.CrawlerConfig, logger arbor.ILogger) *Service {
	userAgent := crawler.UserAgent
	if userAgent == "" {
		userAgent = pickUserAgent()
	}
	return &Service{
		config:    config,
		logger:    logger,
		userAgent: userAgent,
	}
}

var _ interfaces.BrowserDriver = (*Service)(nil)

// Start launches Chrome, installs the masking script, and verifies the
// instance responds.
func (s *Service) Start(ctx context.Context) error {
	if s.running {
		return nil
	}

	window := s.config.Window()
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.config.Headless),
		chromedp.Flag("disable-gpu", s.config.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.WindowSize(window.Width, window.Height),
		chromedp.UserAgent(s.userAgent),
	)
	if s.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.config.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	startCtx, cancel := context.WithTimeout(browserCtx, s.config.PageLoadTimeoutDur())
	defer cancel()

	err := chromedp.Run(startCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(maskingScript).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		browserCancel()
		allocCancel()
		return fmt.Errorf("browser failed startup test: %w", err)
	}

	s.allocCancel = allocCancel
	s.browserCancel = browserCancel
	s.browserCtx = browserCtx
	s.running = true

	s.logger.Info().
		Bool("headless", s.config.Headless).
		Str("user_agent", s.userAgent).
		Msg("Browser started")
	return nil
}

// Stop tears the browser down. Safe to call twice.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}
	s.browserCancel()
	s.allocCancel()
	s.running = false
	s.logger.Info().Msg("Browser stopped")
	return nil
}

// Healthy probes the instance with a cheap title read.
func (s *Service) Healthy(ctx context.Context) bool {
	if !s.running {
		return false
	}
	probeCtx, cancel := context.WithTimeout(s.browserCtx, 5*time.Second)
	defer cancel()

	var title string
	return chromedp.Run(probeCtx, chromedp.Title(&title)) == nil
}

// run executes actions against the managed browser under a timeout. The
// caller context gates entry; an in-flight CDP action finishes or times out
// on its own.
func (s *Service) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	if !s.running {
		return ErrDriverDead
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	runCtx := s.browserCtx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, timeout)
		defer cancel()
	}
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads a URL and waits for the document body.
func (s *Service) Navigate(ctx context.Context, url string) error {
	err := s.run(ctx, s.config.PageLoadTimeoutDur(),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// CurrentURL returns the address of the active page.
func (s *Service) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("failed to read location: %w", err)
	}
	return url, nil
}

// Title returns the active page title.
func (s *Service) Title(ctx context.Context) (string, error) {
	var title string
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.Title(&title)); err != nil {
		return "", fmt.Errorf("failed to read title: %w", err)
	}
	return title, nil
}

// HTML returns the serialized document of the active page.
func (s *Service) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture page HTML: %w", err)
	}
	return html, nil
}

// WaitVisible blocks until the selector renders or the timeout passes.
func (s *Service) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.config.ElementWaitTimeoutDur()
	}
	if err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("element %s not visible: %w", selector, err)
	}
	return nil
}

// Exists reports whether the selector matches anything right now.
func (s *Service) Exists(ctx context.Context, selector string) (bool, error) {
	script, err := selectorProbe(selector)
	if err != nil {
		return false, err
	}
	var found bool
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.Evaluate(script, &found)); err != nil {
		return false, fmt.Errorf("failed to probe %s: %w", selector, err)
	}
	return found, nil
}

// Count returns how many elements currently match the selector.
func (s *Service) Count(ctx context.Context, selector string) (int, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return 0, fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	var count int
	script := fmt.Sprintf("document.querySelectorAll(%s).length", quoted)
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.Evaluate(script, &count)); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", selector, err)
	}
	return count, nil
}

// Click clicks the first element matching the selector.
func (s *Service) Click(ctx context.Context, selector string) error {
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.Click(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s: %w", selector, err)
	}
	return nil
}

// ScrollIntoView centers the index-th match of selector in the viewport.
func (s *Service) ScrollIntoView(ctx context.Context, selector string, index int) error {
	return s.nthAction(ctx, selector, index, `el.scrollIntoView({block: "center"});`)
}

// Hover dispatches a mouseover on the index-th match of selector.
func (s *Service) Hover(ctx context.Context, selector string, index int) error {
	return s.nthAction(ctx, selector, index,
		`el.dispatchEvent(new MouseEvent("mouseover", {bubbles: true}));`)
}

func (s *Service) nthAction(ctx context.Context, selector string, index int, stmt string) error {
	script, err := nthScript(selector, index, stmt)
	if err != nil {
		return err
	}
	var found bool
	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.Evaluate(script, &found)); err != nil {
		return fmt.Errorf("failed to act on %s[%d]: %w", selector, index, err)
	}
	if !found {
		return fmt.Errorf("no element at %s[%d]", selector, index)
	}
	return nil
}

// ClickOpensTab clicks the index-th match of selector, expecting the click
// to open a new tab. It captures the new page's HTML and canonical URL,
// closes the tab, and leaves focus on the originating page.
func (s *Service) ClickOpensTab(ctx context.Context, selector string, index int, timeout time.Duration) (string, string, error) {
	if !s.running {
		return "", "", ErrDriverDead
	}
	if timeout <= 0 {
		timeout = s.config.PageLoadTimeoutDur()
	}

	targetCh := chromedp.WaitNewTarget(s.browserCtx, func(info *target.Info) bool {
		return info.Type == "page" && info.URL != "about:blank"
	})

	if err := s.nthAction(ctx, selector, index, `el.click();`); err != nil {
		return "", "", err
	}

	var targetID target.ID
	select {
	case targetID = <-targetCh:
	case <-time.After(timeout):
		return "", "", fmt.Errorf("no tab opened for %s[%d] within %s", selector, index, timeout)
	case <-ctx.Done():
		return "", "", ctx.Err()
	}

	tabCtx, tabCancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(targetID))
	defer tabCancel()

	runCtx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var html, url string
	err := chromedp.Run(runCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		chromedp.Run(tabCtx, page.Close())
		return "", "", fmt.Errorf("failed to read detail tab: %w", err)
	}

	if err := chromedp.Run(tabCtx, page.Close()); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close detail tab")
	}
	return html, url, nil
}

// ExportCookies captures every cookie visible to the browser.
func (s *Service) ExportCookies(ctx context.Context) ([]models.SessionCookie, error) {
	var cookies []models.SessionCookie
	err := s.run(ctx, s.config.ElementWaitTimeoutDur(), chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		cookies = fromCDPCookies(raw)
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to export cookies: %w", err)
	}
	return cookies, nil
}

// ImportCookies restores cookies into the browser. SameSite and HttpOnly are
// dropped; restoring them trips strict-mode rejections on some builds.
func (s *Service) ImportCookies(ctx context.Context, cookies []models.SessionCookie) error {
	err := s.run(ctx, s.config.PageLoadTimeoutDur(), chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			param := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure)
			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				param = param.WithExpires(&expires)
			}
			if err := param.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return fmt.Errorf("failed to import cookies: %w", err)
	}
	s.logger.Debug().Int("count", len(cookies)).Msg("Cookies restored")
	return nil
}

// ExportStorage captures localStorage and sessionStorage of the active page.
func (s *Service) ExportStorage(ctx context.Context) (map[string]string, map[string]string, error) {
	local := map[string]string{}
	session := map[string]string{}
	err := s.run(ctx, s.config.ElementWaitTimeoutDur(),
		chromedp.Evaluate(dumpStorageScript("localStorage"), &local),
		chromedp.Evaluate(dumpStorageScript("sessionStorage"), &session),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to export storage: %w", err)
	}
	return local, session, nil
}

// ImportStorage restores web storage onto the active page. The page must
// already be on the target origin.
func (s *Service) ImportStorage(ctx context.Context, local map[string]string, session map[string]string) error {
	actions := make([]chromedp.Action, 0, 2)
	for storage, data := range map[string]map[string]string{
		"localStorage":   local,
		"sessionStorage": session,
	} {
		if len(data) == 0 {
			continue
		}
		script, err := loadStorageScript(storage, data)
		if err != nil {
			return err
		}
		var ignored interface{}
		actions = append(actions, chromedp.Evaluate(script, &ignored))
	}
	if len(actions) == 0 {
		return nil
	}

	if err := s.run(ctx, s.config.ElementWaitTimeoutDur(), actions...); err != nil {
		return fmt.Errorf("failed to import storage: %w", err)
	}
	return nil
}

// UserAgent returns the agent string this instance runs under.
func (s *Service) UserAgent() string {
	return s.userAgent
}

// Window returns the viewport the browser was launched with.
func (s *Service) Window() models.WindowSize {
	return s.config.Window()
}

// fromCDPCookies converts CDP cookies to the session model.
func fromCDPCookies(raw []*network.Cookie) []models.SessionCookie {
	cookies := make([]models.SessionCookie, 0, len(raw))
	for _, c := range raw {
		cookie := models.SessionCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		}
		if c.Expires > 0 {
			cookie.Expires = c.Expires
		}
		cookies = append(cookies, cookie)
	}
	return cookies
}

// selectorProbe builds a null-safe querySelector expression.
func selectorProbe(selector string) (string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return fmt.Sprintf("document.querySelector(%s) !== null", quoted), nil
}

// nthScript runs one statement against the index-th match of selector and
// reports whether such an element existed.
func nthScript(selector string, index int, stmt string) (string, error) {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return "", fmt.Errorf("invalid selector %q: %w", selector, err)
	}
	return fmt.Sprintf(`(() => {
		const nodes = document.querySelectorAll(%s);
		if (%d >= nodes.length) { return false; }
		const el = nodes[%d];
		%s
		return true;
	})()`, quoted, index, index, stmt), nil
}

// dumpStorageScript serializes one web storage area to a plain object.
func dumpStorageScript(storage string) string {
	return fmt.Sprintf(`(() => {
		const out = {};
		for (let i = 0; i < %s.length; i++) {
			const key = %s.key(i);
			out[key] = %s.getItem(key);
		}
		return out;
	})()`, storage, storage, storage)
}

// loadStorageScript writes entries into one web storage area.
func loadStorageScript(storage string, data map[string]string) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to serialize %s payload: %w", storage, err)
	}
	script := fmt.Sprintf(`(() => {
		const data = %s;
		for (const [key, value] of Object.entries(data)) {
			%s.setItem(key, value);
		}
		return true;
	})()`, payload, storage)
	return strings.TrimSpace(script), nil
}
