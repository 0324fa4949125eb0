package web

import (
	"net/http"

	"github.com/vdbops/vantage/internal/backend"
)

// StatusData is the template context for the cluster status page.
type StatusData struct {
	PageData
	Online      bool
	Version     string
	StatusErr   string
	Cluster     backend.ClusterInfo
	ClusterOK   bool
	MemoryUsage int64
	AppStatus   string
	TelemetryOK bool
}

// handleStatus renders the cluster status page from live fetches. Each
// section degrades independently: an unreachable cluster endpoint
// still shows the reachability check.
func (s *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	data := StatusData{PageData: s.pageData("status")}

	status, err := s.backend.Status(r.Context())
	if err != nil {
		s.logger.Error("status fetch failed", "error", err)
		data.StatusErr = err.Error()
	} else {
		data.Online = status.Online()
		data.Version = status.Version
		if status.Error != "" {
			data.StatusErr = status.Error
		}
	}

	cluster, err := s.backend.ClusterInfo(r.Context())
	if err != nil {
		s.logger.Warn("cluster fetch failed", "error", err)
	} else {
		data.Cluster = cluster
		data.ClusterOK = true
	}

	telemetry, err := s.backend.Telemetry(r.Context())
	if err != nil {
		s.logger.Warn("telemetry fetch failed", "error", err)
	} else {
		data.MemoryUsage = telemetry.App.MemoryUsage
		data.AppStatus = telemetry.App.Status
		data.TelemetryOK = true
	}

	s.render(w, r, "status.html", data)
}
