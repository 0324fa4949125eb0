package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
)

// LoginData is the template context for the login page.
type LoginData struct {
	PageData
}

// handleLoginPage renders the login form. An already-authenticated
// operator is sent straight to the dashboard.
func (s *WebServer) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.session != nil && s.session.IsAuthenticated() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, "login.html", LoginData{PageData: s.pageData("")})
}

// handleLogin authenticates the submitted credentials. Failures
// re-render the form with the backend's message; the password is never
// echoed back.
func (s *WebServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		data := LoginData{PageData: s.pageData("")}
		data.Error = "Username and password are required"
		s.render(w, r, "login.html", data)
		return
	}

	if err := s.session.Login(r.Context(), username, password); err != nil {
		data := LoginData{PageData: s.pageData("")}
		data.Error = loginErrorMessage(err)
		s.render(w, r, "login.html", data)
		return
	}

	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceSession,
		Kind:      events.KindLogin,
		Data:      map[string]any{"username": username},
	})
	if s.poller != nil {
		s.poller.Trigger()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout ends the session and returns to the login page. The
// backend call inside Logout is best effort; local state is always
// cleared.
func (s *WebServer) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.session.Logout(r.Context())
	s.bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceSession,
		Kind:      events.KindLogout,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginErrorMessage maps a login failure to an operator-facing line.
// Backend rejections carry their own detail; everything else is a
// connectivity problem.
func loginErrorMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return "Could not reach the backend service"
}
