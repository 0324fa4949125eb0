// Package web provides the server-rendered admin console: login,
// dashboard, customer administration, collection management, status,
// activity feed, and settings. Pages are html/template renders over
// the latest refresh snapshot plus targeted live fetches; htmx
// partials keep the dashboard current without full page loads.
package web

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/vdbops/vantage/internal/activity"
	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
	"github.com/vdbops/vantage/internal/refresh"
	"github.com/vdbops/vantage/internal/session"
)

//go:embed static/*
var staticFiles embed.FS

// Config wires the console's collaborators into the web server. All
// state lives in the injected components; the server itself only holds
// templates and routing.
type Config struct {
	// BrandName appears in the layout header and page titles.
	// Defaults to "Vantage".
	BrandName string

	// Session owns login state and UI preferences.
	Session *session.Manager

	// Backend is the admin API client for live fetches and actions.
	Backend *backend.Client

	// Poller supplies the dashboard snapshot and accepts interval
	// changes from the settings page.
	Poller *refresh.Poller

	// Activity is the operator-visible action feed.
	Activity *activity.Log

	// Bus feeds the live WebSocket activity stream. May be nil.
	Bus *events.Bus

	// DefaultInterval is the refresh cadence when no preference is
	// stored.
	DefaultInterval time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// WebServer renders the admin console pages.
type WebServer struct {
	brandName       string
	session         *session.Manager
	backend         *backend.Client
	poller          *refresh.Poller
	activity        *activity.Log
	bus             *events.Bus
	defaultInterval time.Duration
	logger          *slog.Logger
	templates       map[string]*template.Template
}

// NewWebServer creates the console server. Template parse errors panic
// so that startup fails fast.
func NewWebServer(cfg Config) *WebServer {
	if cfg.BrandName == "" {
		cfg.BrandName = "Vantage"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DefaultInterval <= 0 {
		cfg.DefaultInterval = 30 * time.Second
	}
	return &WebServer{
		brandName:       cfg.BrandName,
		session:         cfg.Session,
		backend:         cfg.Backend,
		poller:          cfg.Poller,
		activity:        cfg.Activity,
		bus:             cfg.Bus,
		defaultInterval: cfg.DefaultInterval,
		logger:          cfg.Logger,
		templates:       loadTemplates(),
	}
}

// RegisterRoutes adds all console routes to a mux. Every page except
// /login and /static is gated on an authenticated session.
func (s *WebServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /login", s.handleLoginPage)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /logout", s.requireAuth(s.handleLogout))

	mux.HandleFunc("GET /", s.requireAuth(s.handleDashboard))
	mux.HandleFunc("POST /refresh", s.requireAuth(s.handleRefreshNow))

	mux.HandleFunc("GET /customers", s.requireAuth(s.handleCustomers))
	mux.HandleFunc("POST /customers", s.requireAuth(s.handleCustomerCreate))
	mux.HandleFunc("POST /customers/{id}/delete", s.requireAuth(s.handleCustomerDelete))
	mux.HandleFunc("POST /customers/{id}/toggle", s.requireAuth(s.handleCustomerToggle))
	mux.HandleFunc("GET /customers/{id}/documents", s.requireAuth(s.handleDocuments))
	mux.HandleFunc("POST /customers/{id}/documents", s.requireAuth(s.handleDocumentUpload))
	mux.HandleFunc("GET /api/customers/{id}/detail", s.requireAuth(s.handleCustomerDetail))

	mux.HandleFunc("GET /collections", s.requireAuth(s.handleCollections))
	mux.HandleFunc("POST /collections", s.requireAuth(s.handleCollectionCreate))
	mux.HandleFunc("POST /collections/{name}/delete", s.requireAuth(s.handleCollectionDelete))

	mux.HandleFunc("GET /status", s.requireAuth(s.handleStatus))

	mux.HandleFunc("GET /logs", s.requireAuth(s.handleLogs))
	mux.HandleFunc("POST /logs/clear", s.requireAuth(s.handleLogsClear))
	mux.HandleFunc("GET /ws/activity", s.requireAuth(s.handleActivityWS))

	mux.HandleFunc("GET /settings", s.requireAuth(s.handleSettings))
	mux.HandleFunc("POST /settings/theme", s.requireAuth(s.handleThemeChange))
	mux.HandleFunc("POST /settings/refresh", s.requireAuth(s.handleIntervalChange))
	mux.HandleFunc("POST /settings/password", s.requireAuth(s.handlePasswordChange))

	mux.Handle("GET /static/", http.FileServer(http.FS(staticFiles)))
}

// requireAuth redirects logged-out requests to the login page. Handlers
// behind it can assume a bearer token is installed, though the backend
// may still reject it (expiry), which surfaces as a page error.
func (s *WebServer) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.session == nil || !s.session.IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

// handleRefreshNow triggers an immediate refresh cycle outside the
// timer cadence, then returns to the dashboard.
func (s *WebServer) handleRefreshNow(w http.ResponseWriter, r *http.Request) {
	if s.poller != nil {
		s.poller.Trigger()
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
