package web

import (
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vdbops/vantage/internal/buildinfo"
)

// SettingsData is the template context for the settings page.
type SettingsData struct {
	PageData
	RefreshSeconds int
	TokenExpiry    time.Time
	HasExpiry      bool
	Build          map[string]string
}

// handleSettings renders the settings page: refresh cadence, theme,
// password change, session expiry, and build info.
func (s *WebServer) handleSettings(w http.ResponseWriter, r *http.Request) {
	data := SettingsData{
		PageData:       s.pageData("settings"),
		RefreshSeconds: int(s.session.RefreshInterval(s.defaultInterval) / time.Second),
		Build:          buildinfo.Info(),
	}
	data.Error = r.URL.Query().Get("error")
	data.Notice = r.URL.Query().Get("notice")

	if exp, ok := s.session.TokenExpiry(); ok {
		data.TokenExpiry = exp
		data.HasExpiry = true
	}

	s.render(w, r, "settings.html", data)
}

// handleThemeChange persists the theme preference.
func (s *WebServer) handleThemeChange(w http.ResponseWriter, r *http.Request) {
	theme := r.FormValue("theme")
	if err := s.session.SetTheme(theme); err != nil {
		redirectSettings(w, r, "error", "Unknown theme")
		return
	}
	redirectSettings(w, r, "notice", "Theme updated")
}

// handleIntervalChange persists the refresh cadence and applies it to
// the running poller immediately.
func (s *WebServer) handleIntervalChange(w http.ResponseWriter, r *http.Request) {
	secs, err := strconv.Atoi(r.FormValue("refresh_seconds"))
	if err != nil || secs < 5 || secs > 3600 {
		redirectSettings(w, r, "error", "Refresh interval must be between 5 and 3600 seconds")
		return
	}

	interval := time.Duration(secs) * time.Second
	if err := s.session.SetRefreshInterval(interval); err != nil {
		redirectSettings(w, r, "error", "Could not save interval: "+err.Error())
		return
	}
	if s.poller != nil {
		s.poller.Reconfigure(interval)
	}
	redirectSettings(w, r, "notice", "Refresh interval updated")
}

// handlePasswordChange updates the operator password via the backend.
func (s *WebServer) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	current := r.FormValue("current_password")
	updated := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if updated == "" || current == "" {
		redirectSettings(w, r, "error", "Current and new passwords are required")
		return
	}
	if updated != confirm {
		redirectSettings(w, r, "error", "New passwords do not match")
		return
	}
	if len(updated) < 8 {
		redirectSettings(w, r, "error", "New password must be at least 8 characters")
		return
	}

	if err := s.session.ChangePassword(r.Context(), current, updated); err != nil {
		s.logger.Warn("password change failed", "error", err)
		redirectSettings(w, r, "error", "Password change failed: "+err.Error())
		return
	}
	redirectSettings(w, r, "notice", "Password changed")
}

func redirectSettings(w http.ResponseWriter, r *http.Request, key, msg string) {
	http.Redirect(w, r, "/settings?"+key+"="+url.QueryEscape(msg), http.StatusSeeOther)
}
