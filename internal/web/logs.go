package web

import (
	"net/http"

	"github.com/vdbops/vantage/internal/activity"
)

// LogsData is the template context for the activity feed page.
type LogsData struct {
	PageData
	Entries []activity.Entry
}

// handleLogs renders the activity feed, newest first.
func (s *WebServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	data := LogsData{PageData: s.pageData("logs")}
	if s.activity != nil {
		data.Entries = s.activity.Entries()
	}

	if r.Header.Get("HX-Request") == "true" && r.Header.Get("HX-Target") == "activity-feed" {
		if s.renderBlock(w, "logs.html", "activity-feed", data) {
			return
		}
	}

	s.render(w, r, "logs.html", data)
}

// handleLogsClear empties the activity feed.
func (s *WebServer) handleLogsClear(w http.ResponseWriter, r *http.Request) {
	if s.activity != nil {
		s.activity.Clear()
	}
	http.Redirect(w, r, "/logs", http.StatusSeeOther)
}
