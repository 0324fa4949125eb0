package web

import (
	"net/http"
	"time"

	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/buildinfo"
	"github.com/vdbops/vantage/internal/refresh"
)

// DashboardData is the template context for the overview page.
type DashboardData struct {
	PageData
	HasData     bool
	Online      bool
	Version     string
	Collections []backend.Collection
	TotalPoints int64
	Vectors     int64
	MemoryUsage int64
	LastRefresh time.Time
	Problems    []string
	Uptime      time.Duration
}

// handleDashboard renders the overview page at "/". Only exact "/"
// requests get the dashboard; all other paths return 404.
func (s *WebServer) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	data := DashboardData{
		PageData: s.pageData("dashboard"),
		Uptime:   buildinfo.Uptime(),
	}

	if s.poller != nil {
		snap := s.poller.Snapshot()
		fillDashboard(&data, snap)
	}

	s.render(w, r, "dashboard.html", data)
}

// fillDashboard copies a refresh snapshot into the template context.
// Sections that failed this cycle are listed as problems; the rest of
// the page still renders from whatever succeeded.
func fillDashboard(data *DashboardData, snap refresh.Snapshot) {
	if snap.Cycle == 0 {
		return
	}
	data.HasData = true
	data.LastRefresh = snap.Taken

	if snap.StatusErr != nil {
		data.Problems = append(data.Problems, "Status check failed: "+snap.StatusErr.Error())
	} else {
		data.Online = snap.Status.Online()
		data.Version = snap.Status.Version
	}

	if snap.CollectionsErr != nil {
		data.Problems = append(data.Problems, "Collection listing failed: "+snap.CollectionsErr.Error())
	} else {
		data.Collections = snap.Collections
		for _, col := range snap.Collections {
			data.TotalPoints += col.PointsCount
		}
	}

	if snap.TelemetryErr != nil {
		data.Problems = append(data.Problems, "Telemetry fetch failed: "+snap.TelemetryErr.Error())
	} else {
		data.Vectors = snap.Telemetry.TotalVectors()
		data.MemoryUsage = snap.Telemetry.App.MemoryUsage
	}
}
