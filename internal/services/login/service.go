package login

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/venari/internal/common"
	"github.com/ternarybob/venari/internal/interfaces"
	"github.com/ternarybob/venari/internal/models"
)

var (
	// ErrLoginFailed means every manual login attempt was exhausted.
	ErrLoginFailed = errors.New("login failed after all attempts")

	// ErrLoginTimeout means the operator did not finish logging in before the
	// wait window closed.
	ErrLoginTimeout = errors.New("timed out waiting for manual login")
)

// Service drives the login gate: restore a saved session when one is valid,
// otherwise hold the browser on the login page until the operator finishes,
// then persist the fresh session.
type Service struct {
	driver  interfaces.BrowserDriver
	store   interfaces.SessionStore
	website *common.WebsiteConfig
	login   *common.LoginConfig
	mode    *common.LoginModeConfig
	runMode *common.ModeConfig
	logger  arbor.ILogger

	mu        sync.RWMutex
	state     models.LoginState
	lastCheck time.Time
	lastOK    bool
}

// NewService creates the login controller
func NewService(
	driver interfaces.BrowserDriver,
	store interfaces.SessionStore,
	website *common.WebsiteConfig,
	login *common.LoginConfig,
	mode *common.LoginModeConfig,
	runMode *common.ModeConfig,
	logger arbor.ILogger,
) *Service {
	return &Service{
		driver:  driver,
		store:   store,
		website: website,
		login:   login,
		mode:    mode,
		runMode: runMode,
		logger:  logger,
		state:   models.LoginStateIdle,
	}
}

var _ interfaces.LoginController = (*Service)(nil)

// State returns the controller's current lifecycle position.
func (s *Service) State() models.LoginState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setState(state models.LoginState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// EnsureLoggedIn runs the full gate. With the login gate disabled it returns
// immediately.
func (s *Service) EnsureLoggedIn(ctx context.Context) error {
	if !s.mode.Enabled {
		s.setState(models.LoginStateLoggedIn)
		s.rememberCheck(true)
		return nil
	}

	if s.runMode.UseSavedSession {
		s.setState(models.LoginStateRestoring)
		restored, err := s.restoreSession(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("Session restore failed, falling back to manual login")
		}
		if restored {
			s.setState(models.LoginStateLoggedIn)
			s.rememberCheck(true)
			s.logger.Info().Msg("Logged in from saved session")
			return nil
		}
	}

	if err := s.manualLogin(ctx); err != nil {
		s.setState(models.LoginStateFailed)
		s.rememberCheck(false)
		return err
	}

	if s.mode.AutoSaveSession {
		s.setState(models.LoginStateSaving)
		if err := s.SaveSession(ctx); err != nil {
			// A failed save costs the next run a manual login, nothing more.
			s.logger.Warn().Err(err).Msg("Failed to persist session")
		}
	}

	s.setState(models.LoginStateLoggedIn)
	s.rememberCheck(true)
	return nil
}

// restoreSession loads the stored snapshot into the browser and verifies it
// still authenticates. Returns false when there is nothing usable.
func (s *Service) restoreSession(ctx context.Context) (bool, error) {
	data, err := s.store.Load()
	if err != nil {
		return false, err
	}
	if !s.store.Valid(data) {
		return false, nil
	}

	// Keep the operator's current page when it already sits on the target
	// site; otherwise park on the site root so cookie domains line up.
	current, err := s.driver.CurrentURL(ctx)
	if err != nil {
		return false, err
	}
	onSite := sameHost(current, s.website.BaseURL)
	if !onSite {
		if err := s.driver.Navigate(ctx, s.website.BaseURL); err != nil {
			return false, err
		}
	}

	if err := s.driver.ImportCookies(ctx, data.Cookies); err != nil {
		return false, err
	}
	if err := s.driver.ImportStorage(ctx, data.LocalStorage, data.SessionStorage); err != nil {
		s.logger.Debug().Err(err).Msg("Web storage restore failed, continuing with cookies only")
	}

	// Reload so the restored cookies take effect before probing.
	reloadURL := s.website.BaseURL
	if onSite {
		reloadURL = current
	}
	if err := s.driver.Navigate(ctx, reloadURL); err != nil {
		return false, err
	}

	ok, err := s.probeLoggedIn(ctx)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// manualLogin parks the browser on the login page and polls until the
// success indicators appear, retrying up to the configured attempt budget.
func (s *Service) manualLogin(ctx context.Context) error {
	s.setState(models.LoginStateManualLogin)

	loginURL := s.login.LoginURL
	if loginURL == "" {
		loginURL = s.website.LoginURL
	}

	var lastErr error
	for attempt := 1; attempt <= s.mode.MaxLoginAttempts; attempt++ {
		s.logger.Info().
			Int("attempt", attempt).
			Int("max_attempts", s.mode.MaxLoginAttempts).
			Str("url", loginURL).
			Msg("Waiting for manual login")

		if err := s.driver.Navigate(ctx, loginURL); err != nil {
			lastErr = err
			continue
		}

		err := s.waitForLogin(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt < s.mode.MaxLoginAttempts && s.mode.LoginRetryDelay > 0 {
			select {
			case <-time.After(time.Duration(s.mode.LoginRetryDelay) * time.Second):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("%w: %v", ErrLoginFailed, lastErr)
}

// waitForLogin polls the page until a success indicator renders or the wait
// window closes.
func (s *Service) waitForLogin(ctx context.Context) error {
	deadline := time.Now().Add(time.Duration(s.login.WaitTimeout) * time.Second)
	interval := time.Duration(s.login.CheckInterval) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}

	for {
		ok, err := s.probeLoggedIn(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return ErrLoginTimeout
		}

		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// probeLoggedIn checks the live page for any success indicator.
func (s *Service) probeLoggedIn(ctx context.Context) (bool, error) {
	indicators := s.successIndicators()
	for _, selector := range indicators {
		found, err := s.driver.Exists(ctx, selector)
		if err != nil {
			return false, err
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) successIndicators() []string {
	indicators := make([]string, 0, len(s.login.SuccessIndicators)+1)
	if s.website.LoginCheckElement != "" {
		indicators = append(indicators, s.website.LoginCheckElement)
	}
	indicators = append(indicators, s.login.SuccessIndicators...)
	return indicators
}

// IsLoggedIn answers from cache inside the validation interval so page work
// is not interrupted by a probe more than once per window.
func (s *Service) IsLoggedIn(ctx context.Context) (bool, error) {
	s.mu.RLock()
	fresh := !s.lastCheck.IsZero() && time.Since(s.lastCheck) < s.mode.ValidationIntervalDur()
	cached := s.lastOK
	s.mu.RUnlock()

	if fresh {
		return cached, nil
	}

	ok, err := s.probeLoggedIn(ctx)
	if err != nil {
		return false, err
	}
	s.rememberCheck(ok)
	return ok, nil
}

// ValidateBeforeDetails re-checks login validity before a detail navigation.
// At most one real probe fires per session_validation_interval, and the probe
// never navigates, so the current list page survives. An invalid session is
// restored from file first; a bounded interactive login is the last resort.
func (s *Service) ValidateBeforeDetails(ctx context.Context) error {
	if !s.mode.Enabled || !s.mode.RequireLoginForDetails {
		return nil
	}

	ok, err := s.IsLoggedIn(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}

	s.logger.Warn().Msg("Session invalid before detail fetch, attempting silent restore")
	s.setState(models.LoginStateRestoring)
	restored, err := s.restoreSession(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Silent session restore failed")
	}
	if restored {
		s.setState(models.LoginStateLoggedIn)
		s.rememberCheck(true)
		return nil
	}

	if err := s.manualLogin(ctx); err != nil {
		s.setState(models.LoginStateFailed)
		s.rememberCheck(false)
		return err
	}
	if s.mode.AutoSaveSession {
		s.setState(models.LoginStateSaving)
		if err := s.SaveSession(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to persist session")
		}
	}
	s.setState(models.LoginStateLoggedIn)
	s.rememberCheck(true)
	return nil
}

func (s *Service) rememberCheck(ok bool) {
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.lastOK = ok
	s.mu.Unlock()
}

// SaveSession captures the live browser state into the session store.
func (s *Service) SaveSession(ctx context.Context) error {
	cookies, err := s.driver.ExportCookies(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture cookies: %w", err)
	}

	local, sessionStorage, err := s.driver.ExportStorage(ctx)
	if err != nil {
		s.logger.Debug().Err(err).Msg("Web storage capture failed, saving cookies only")
		local, sessionStorage = map[string]string{}, map[string]string{}
	}

	currentURL, err := s.driver.CurrentURL(ctx)
	if err != nil {
		return fmt.Errorf("failed to read current URL: %w", err)
	}

	data := &models.SessionData{
		Timestamp:      time.Now(),
		CurrentURL:     currentURL,
		Cookies:        cookies,
		LocalStorage:   local,
		SessionStorage: sessionStorage,
		UserAgent:      s.driver.UserAgent(),
		WindowSize:     s.driver.Window(),
	}
	return s.store.Save(data)
}

// sameHost reports whether two URLs share a hostname.
func sameHost(a, b string) bool {
	ua, errA := url.Parse(a)
	ub, errB := url.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	return ua.Hostname() != "" && ua.Hostname() == ub.Hostname()
}
