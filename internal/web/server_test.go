package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vdbops/vantage/internal/activity"
	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
	"github.com/vdbops/vantage/internal/refresh"
	"github.com/vdbops/vantage/internal/session"
)

// mockAPI returns a handler that behaves like a small slice of the
// admin backend: login plus whatever extra routes a test registers.
func mockAPI(extra func(mux *http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "tok-test", "token_type": "bearer"}`)
	})
	mux.HandleFunc("POST /api/auth/logout", func(w http.ResponseWriter, r *http.Request) {})
	if extra != nil {
		extra(mux)
	}
	return mux
}

// newTestConsole builds a full console wired to a mock backend. The
// returned mux has all routes registered; login state starts empty.
func newTestConsole(t *testing.T, apiHandler http.Handler) (*WebServer, *session.Manager, *http.ServeMux) {
	t.Helper()
	api := httptest.NewServer(apiHandler)
	t.Cleanup(api.Close)

	client := backend.NewClient(api.URL, "", false, nil)
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	mgr := session.NewManager(store, client, nil)

	bus := events.New()
	feed := activity.NewLog(0)
	poller := refresh.NewPoller(refresh.Config{
		Backend:  client,
		Auth:     mgr,
		Bus:      bus,
		Interval: time.Hour,
	})

	ws := NewWebServer(Config{
		Session:         mgr,
		Backend:         client,
		Poller:          poller,
		Activity:        feed,
		Bus:             bus,
		DefaultInterval: 30 * time.Second,
	})
	mux := http.NewServeMux()
	ws.RegisterRoutes(mux)
	return ws, mgr, mux
}

func login(t *testing.T, mgr *session.Manager) {
	t.Helper()
	if err := mgr.Login(context.Background(), "admin", "secret"); err != nil {
		t.Fatalf("login: %v", err)
	}
}

func postForm(mux *http.ServeMux, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func TestLoginPage(t *testing.T) {
	_, _, mux := newTestConsole(t, mockAPI(nil))

	req := httptest.NewRequest("GET", "/login", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /login status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"<!DOCTYPE html>", "Vantage", `name="username"`, `name="password"`} {
		if !strings.Contains(body, want) {
			t.Errorf("GET /login response missing %q", want)
		}
	}
	// Logged out, so no navigation chrome.
	if strings.Contains(body, "<nav") {
		t.Error("login page should not contain <nav>")
	}
}

func TestLoggedOutRedirects(t *testing.T) {
	_, _, mux := newTestConsole(t, mockAPI(nil))

	for _, path := range []string{"/", "/customers", "/collections", "/status", "/logs", "/settings"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		if w.Code != http.StatusSeeOther {
			t.Errorf("GET %s status = %d, want %d", path, w.Code, http.StatusSeeOther)
		}
		if loc := w.Header().Get("Location"); loc != "/login" {
			t.Errorf("GET %s redirects to %q, want /login", path, loc)
		}
	}
}

func TestLoginFlow(t *testing.T) {
	_, _, mux := newTestConsole(t, mockAPI(nil))

	w := postForm(mux, "/login", url.Values{"username": {"admin"}, "password": {"secret"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /login status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("POST /login redirects to %q, want /", loc)
	}

	// Dashboard is reachable now.
	req := httptest.NewRequest("GET", "/", nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("GET / after login status = %d, want %d", resp.Code, http.StatusOK)
	}
	if !strings.Contains(resp.Body.String(), "Dashboard") {
		t.Error("dashboard page missing heading")
	}
}

func TestLoginFailureShowsBackendDetail(t *testing.T) {
	api := http.NewServeMux()
	api.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"detail": "Incorrect username or password"}`)
	})
	_, _, mux := newTestConsole(t, api)

	w := postForm(mux, "/login", url.Values{"username": {"admin"}, "password": {"wrong"}})
	if w.Code != http.StatusOK {
		t.Fatalf("failed POST /login status = %d, want 200 (re-rendered form)", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Incorrect username or password") {
		t.Error("login failure should surface the backend detail message")
	}
}

func TestLogout(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	w := postForm(mux, "/logout", url.Values{})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /logout status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	if mgr.IsAuthenticated() {
		t.Error("still authenticated after logout")
	}
}

func TestDashboardUnknownPathNotFound(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("GET /nonexistent status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDashboardHtmxPartial(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("HX-Request", "true")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET / (htmx) status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if strings.Contains(body, "<!DOCTYPE html>") {
		t.Error("htmx partial should not contain <!DOCTYPE html>")
	}
	if strings.Contains(body, "<nav") {
		t.Error("htmx partial should not contain <nav>")
	}
}

func TestCustomersPage(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(func(api *http.ServeMux) {
		api.HandleFunc("GET /api/customers", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"customers": [{"customer_id": "c1", "name": "Acme", "email": "ops@acme.test",
				"quota_mb": 100, "used_mb": 95, "usage_percent": 95, "document_count": 4, "active": true}], "total": 1}`)
		})
		api.HandleFunc("GET /api/customers/stats", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"total_customers": 1, "active_customers": 1, "total_quota_mb": 100,
				"total_used_mb": 95, "total_documents": 4, "avg_usage_percent": 95}`)
		})
	}))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/customers", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /customers status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	for _, want := range []string{"Acme", "ops@acme.test", "95.0 MB"} {
		if !strings.Contains(body, want) {
			t.Errorf("customers page missing %q", want)
		}
	}
	// 95% usage gets the danger treatment.
	if !strings.Contains(body, "danger") {
		t.Error("customers page missing danger usage class at 95%")
	}
}

func TestCustomersPageEmpty(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(func(api *http.ServeMux) {
		api.HandleFunc("GET /api/customers", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"customers": [], "total": 0}`)
		})
		api.HandleFunc("GET /api/customers/stats", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})
	}))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/customers", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "No customers yet") {
		t.Error("empty customers page missing placeholder row")
	}
}

func TestCustomerCreate(t *testing.T) {
	var listCalls atomic.Int32
	ws, mgr, mux := newTestConsole(t, mockAPI(func(api *http.ServeMux) {
		api.HandleFunc("POST /api/customers", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"success": true, "customer": {"customer_id": "c1", "name": "Acme"}}`)
		})
		api.HandleFunc("GET /api/customers", func(w http.ResponseWriter, r *http.Request) {
			listCalls.Add(1)
			fmt.Fprint(w, `{"customers": [{"customer_id": "c1", "name": "Acme"}], "total": 1}`)
		})
		api.HandleFunc("GET /api/customers/stats", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{}`)
		})
	}))
	login(t, mgr)

	// Feed the activity log from the bus so the created event produces
	// an operator-visible entry.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ws.activity.Record(ctx, ws.bus)
	waitForCondition(t, func() bool { return ws.bus.SubscriberCount() > 0 })

	w := postForm(mux, "/customers", url.Values{
		"name":     {"Acme"},
		"email":    {"ops@acme.test"},
		"quota_mb": {"100"},
	})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /customers status = %d, want %d", w.Code, http.StatusSeeOther)
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "notice=") {
		t.Errorf("create redirect %q missing notice", loc)
	}

	waitForCondition(t, func() bool { return ws.activity.Len() > 0 })
	entry := ws.activity.Entries()[0]
	if !strings.Contains(entry.Message, "c1") {
		t.Errorf("activity entry %q missing customer id c1", entry.Message)
	}

	// Following the redirect re-fetches the list from the backend; the
	// console holds no cached copy.
	req := httptest.NewRequest("GET", loc, nil)
	resp := httptest.NewRecorder()
	mux.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want %d", loc, resp.Code, http.StatusOK)
	}
	if listCalls.Load() == 0 {
		t.Error("redirect target did not re-fetch the customer list")
	}
}

// waitForCondition polls until cond is true or the deadline passes.
func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestCustomerCreateRejectsBadQuota(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	w := postForm(mux, "/customers", url.Values{
		"name":     {"Acme"},
		"email":    {"ops@acme.test"},
		"quota_mb": {"-5"},
	})
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("bad quota redirect %q missing error", loc)
	}
}

func TestCollectionsPageShowsNAForMissingSchema(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(func(api *http.ServeMux) {
		api.HandleFunc("GET /api/qdrant/collections", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"result": {"collections": [{"name": "bare"}]}}`)
		})
		api.HandleFunc("GET /api/qdrant/collections/bare", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"result": {"points_count": 3, "config": {}}}`)
		})
	}))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/collections", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "bare") {
		t.Error("collections page missing collection name")
	}
	if !strings.Contains(body, "N/A") {
		t.Error("collections page should render N/A for a missing vector schema")
	}
}

func TestCollectionCreateRejectsBadName(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	w := postForm(mux, "/collections", url.Values{
		"name":        {"bad name!"},
		"vector_size": {"384"},
	})
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("bad name redirect %q missing error", loc)
	}
}

func TestLogsPage(t *testing.T) {
	ws, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)
	ws.activity.Add("Created collection alpha")

	req := httptest.NewRequest("GET", "/logs", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "Created collection alpha") {
		t.Error("logs page missing activity entry")
	}

	// Clearing empties the feed.
	postForm(mux, "/logs/clear", url.Values{})
	if ws.activity.Len() != 0 {
		t.Error("activity feed not cleared")
	}
}

func TestSettingsIntervalChange(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	w := postForm(mux, "/settings/refresh", url.Values{"refresh_seconds": {"60"}})
	if w.Code != http.StatusSeeOther {
		t.Fatalf("POST /settings/refresh status = %d", w.Code)
	}
	if got := mgr.RefreshInterval(30 * time.Second); got != 60*time.Second {
		t.Errorf("RefreshInterval = %v after change, want 60s", got)
	}

	// Out-of-range values are rejected.
	w = postForm(mux, "/settings/refresh", url.Values{"refresh_seconds": {"2"}})
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "error=") {
		t.Errorf("out-of-range redirect %q missing error", loc)
	}
}

func TestSettingsThemeChange(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(nil))
	login(t, mgr)

	postForm(mux, "/settings/theme", url.Values{"theme": {"dark"}})
	if mgr.Theme() != "dark" {
		t.Errorf("Theme = %q after change, want dark", mgr.Theme())
	}

	// The layout carries the theme attribute.
	req := httptest.NewRequest("GET", "/settings", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `data-theme="dark"`) {
		t.Error("settings page missing dark theme attribute")
	}
}

func TestStaticCSS(t *testing.T) {
	_, _, mux := newTestConsole(t, mockAPI(nil))

	req := httptest.NewRequest("GET", "/static/style.css", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("GET /static/style.css status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "css") {
		t.Errorf("Content-Type = %q, want css", ct)
	}
}

func TestBrandNameCustom(t *testing.T) {
	api := httptest.NewServer(mockAPI(nil))
	t.Cleanup(api.Close)

	client := backend.NewClient(api.URL, "", false, nil)
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.db"))
	if err != nil {
		t.Fatalf("session store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	ws := NewWebServer(Config{
		BrandName: "AdminDeck",
		Session:   session.NewManager(store, client, nil),
		Backend:   client,
	})
	mux := http.NewServeMux()
	ws.RegisterRoutes(mux)

	req := httptest.NewRequest("GET", "/login", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "AdminDeck") {
		t.Error("login page should contain custom brand name")
	}
}

func TestCustomerDetailJSON(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(func(m *http.ServeMux) {
		m.HandleFunc("GET /api/customers/c1", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"customer_id": "c1", "name": "Acme", "email": "ops@acme.test", "quota_mb": 100}`)
		})
		m.HandleFunc("GET /api/customers/c1/documents", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"customer_id": "c1", "documents": [{"filename": "manual.pdf", "chunks": 12}], "total_documents": 1, "total_chunks": 12}`)
		})
	}))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/api/customers/c1/detail", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d, want %d", w.Code, http.StatusOK)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var payload struct {
		Customer  backend.Customer   `json:"customer"`
		Documents []backend.Document `json:"documents"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("detail response is not valid JSON: %v", err)
	}
	if payload.Customer.Name != "Acme" {
		t.Errorf("customer name = %q, want Acme", payload.Customer.Name)
	}
	if len(payload.Documents) != 1 || payload.Documents[0].Filename != "manual.pdf" {
		t.Errorf("documents = %+v, want one manual.pdf entry", payload.Documents)
	}
}

func TestCustomerDetailDocumentsBestEffort(t *testing.T) {
	_, mgr, mux := newTestConsole(t, mockAPI(func(m *http.ServeMux) {
		m.HandleFunc("GET /api/customers/c1", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"customer_id": "c1", "name": "Acme"}`)
		})
		m.HandleFunc("GET /api/customers/c1/documents", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail": "vector store down"}`, http.StatusBadGateway)
		})
	}))
	login(t, mgr)

	req := httptest.NewRequest("GET", "/api/customers/c1/detail", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("detail status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"documents":[]`) {
		t.Errorf("expected empty documents array, got:\n%s", w.Body.String())
	}
}
