package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vdbops/vantage/internal/backend"
)

// Store namespaces and keys. The auth namespace holds the credential
// material; ui holds display preferences that survive restarts.
const (
	nsAuth = "auth"
	nsUI   = "ui"

	keyToken    = "token"
	keyUsername = "username"
	keyTheme    = "theme"
	keyInterval = "refresh_interval"
)

// Manager coordinates the single operator session: login and logout
// against the backend, token persistence across restarts, and the UI
// preferences attached to the session.
type Manager struct {
	store  *Store
	client *backend.Client
	logger *slog.Logger

	mu       sync.RWMutex
	username string
}

// NewManager creates a session manager. Call Resume once at startup to
// restore any persisted session.
func NewManager(store *Store, client *backend.Client, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, client: client, logger: logger}
}

// Resume restores a persisted session if one exists and its token is
// still usable. A token whose exp claim has passed is discarded without
// a network round trip; an unexpired token is validated against the
// backend. Returns true when the session is live afterwards.
//
// If the backend is unreachable the token is kept optimistically: a
// transient outage should not force a re-login.
func (m *Manager) Resume(ctx context.Context) bool {
	token, err := m.store.Get(nsAuth, keyToken)
	if err != nil {
		m.logger.Warn("session restore failed", "error", err)
		return false
	}
	if token == "" {
		return false
	}

	if exp, ok := tokenExpiry(token); ok && time.Now().After(exp) {
		m.logger.Info("persisted session expired, discarding")
		m.discard()
		return false
	}

	m.client.SetToken(token)
	info, err := m.client.Me(ctx)
	if err != nil {
		if backend.IsAuthError(err) {
			m.logger.Info("persisted session rejected by backend, discarding")
			m.discard()
			return false
		}
		m.logger.Warn("could not validate persisted session, keeping it", "error", err)
		return true
	}

	m.mu.Lock()
	m.username = info.Username
	m.mu.Unlock()
	m.logger.Info("session resumed", "username", info.Username)
	return true
}

// Login authenticates against the backend and persists the resulting
// token so the session survives a restart.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	token, err := m.client.Login(ctx, username, password)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.username = username
	m.mu.Unlock()

	if err := m.store.Set(nsAuth, keyToken, token.AccessToken); err != nil {
		m.logger.Warn("could not persist session token", "error", err)
	}
	if err := m.store.Set(nsAuth, keyUsername, username); err != nil {
		m.logger.Warn("could not persist username", "error", err)
	}
	return nil
}

// Logout ends the session. The backend call is best effort: local
// state is cleared whether or not the server acknowledged, so the
// operator is never stuck logged in.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.client.Logout(ctx); err != nil {
		m.logger.Debug("backend logout failed, clearing local session anyway", "error", err)
	}
	m.discard()
}

func (m *Manager) discard() {
	m.client.ClearToken()
	if err := m.store.DeleteNamespace(nsAuth); err != nil {
		m.logger.Warn("could not clear persisted session", "error", err)
	}
	m.mu.Lock()
	m.username = ""
	m.mu.Unlock()
}

// ChangePassword updates the operator's password via the backend. The
// current token stays valid.
func (m *Manager) ChangePassword(ctx context.Context, current, updated string) error {
	return m.client.ChangePassword(ctx, current, updated)
}

// IsAuthenticated reports whether a bearer token is installed. It does
// not guarantee the token is still accepted; an expired token surfaces
// as a 401 on the next request.
func (m *Manager) IsAuthenticated() bool {
	return m.client.Token() != ""
}

// Username returns the logged-in operator's name, or "" when logged
// out.
func (m *Manager) Username() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.username
}

// TokenExpiry returns the exp claim of the current token. ok is false
// when there is no token or it carries no parseable expiry. The claim
// is read without signature verification: the console is a client, not
// the token's issuer, and only wants the timestamp for display.
func (m *Manager) TokenExpiry() (time.Time, bool) {
	return tokenExpiry(m.client.Token())
}

func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Theme returns the persisted UI theme. Anything other than a stored
// "dark" normalizes to "light", so a hand-edited store value never
// reaches the page markup.
func (m *Manager) Theme() string {
	theme, err := m.store.Get(nsUI, keyTheme)
	if err != nil || theme != "dark" {
		return "light"
	}
	return theme
}

// SetTheme persists the UI theme. Only "light" and "dark" are
// accepted.
func (m *Manager) SetTheme(theme string) error {
	if theme != "light" && theme != "dark" {
		return fmt.Errorf("unknown theme %q", theme)
	}
	return m.store.Set(nsUI, keyTheme, theme)
}

// RefreshInterval returns the persisted dashboard refresh interval, or
// fallback when none is stored.
func (m *Manager) RefreshInterval(fallback time.Duration) time.Duration {
	raw, err := m.store.Get(nsUI, keyInterval)
	if err != nil || raw == "" {
		return fallback
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// SetRefreshInterval persists the dashboard refresh interval.
func (m *Manager) SetRefreshInterval(interval time.Duration) error {
	secs := int(interval / time.Second)
	if secs <= 0 {
		return fmt.Errorf("refresh interval must be positive, got %v", interval)
	}
	return m.store.Set(nsUI, keyInterval, strconv.Itoa(secs))
}
