package models

import "time"

// SessionCookie is one browser cookie as captured at save time. SameSite and
// HttpOnly are recorded but dropped on restore; some driver builds reject them.
type SessionCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expiry,omitempty"` // unix seconds, 0 = session cookie
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly,omitempty"`
	SameSite string  `json:"sameSite,omitempty"`
}

// WindowSize is the browser viewport at save time.
type WindowSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SessionData is the on-disk session snapshot for one website. The file is
// written atomically (tempfile + rename) and considered expired purely by
// wall-clock TTL, regardless of per-cookie expiry fields.
type SessionData struct {
	Timestamp      time.Time         `json:"timestamp"`
	CurrentURL     string            `json:"current_url"`
	Cookies        []SessionCookie   `json:"cookies"`
	LocalStorage   map[string]string `json:"local_storage"`
	SessionStorage map[string]string `json:"session_storage"`
	UserAgent      string            `json:"user_agent"`
	WindowSize     WindowSize        `json:"window_size"`
}

// Age returns how long ago the snapshot was taken.
func (s *SessionData) Age() time.Duration {
	return time.Since(s.Timestamp)
}

// Expired reports whether the snapshot is older than ttl.
func (s *SessionData) Expired(ttl time.Duration) bool {
	return s.Age() > ttl
}

// SessionInfo describes a session file without loading the browser state.
type SessionInfo struct {
	Path        string    `json:"path"`
	SavedAt     time.Time `json:"saved_at"`
	CurrentURL  string    `json:"current_url"`
	CookieCount int       `json:"cookie_count"`
	UserAgent   string    `json:"user_agent"`
	Expired     bool      `json:"expired"`
}

// LoginState tracks the login controller's position in its lifecycle.
type LoginState string

const (
	LoginStateIdle        LoginState = "idle"
	LoginStateRestoring   LoginState = "restoring"
	LoginStateManualLogin LoginState = "manual_login"
	LoginStateSaving      LoginState = "saving"
	LoginStateLoggedIn    LoginState = "logged_in"
	LoginStateFailed      LoginState = "failed"
)
