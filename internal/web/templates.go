package web

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"strconv"

	"github.com/vdbops/vantage/internal/backend"
)

//go:embed templates/*.html
var templateFiles embed.FS

// templateFuncs provides helper functions available in all templates.
var templateFuncs = template.FuncMap{
	"formatBytes":  formatBytes,
	"formatMB":     formatMB,
	"formatNumber": formatNumber,
	"usageClass":   usageClass,
	"timeAgo":      timeAgo,
	"formatTime":   formatTime,
	"truncate":     truncate,
	"parseTime":    backend.ParseTimestamp,
}

// loadTemplates parses the layout and each page template. Each page
// template is a clone of the layout with the page-specific blocks
// overridden. Panics on syntax errors so that startup fails fast.
func loadTemplates() map[string]*template.Template {
	layout := template.Must(
		template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFiles, "templates/layout.html"),
	)

	pages := []string{
		"login.html",
		"dashboard.html",
		"customers.html",
		"documents.html",
		"collections.html",
		"status.html",
		"logs.html",
		"settings.html",
	}
	result := make(map[string]*template.Template, len(pages))

	for _, page := range pages {
		t := template.Must(layout.Clone())
		template.Must(t.ParseFS(templateFiles, "templates/"+page))
		result[page] = t
	}

	return result
}

// render executes a named template. If the request has the HX-Request
// header (htmx partial), only the "content" block is rendered. Otherwise
// the full layout is rendered.
func (s *WebServer) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	t, ok := s.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	block := "layout.html"
	if r.Header.Get("HX-Request") == "true" {
		block = "content"
	}

	if err := t.ExecuteTemplate(w, block, data); err != nil {
		s.logger.Error("template render failed", "template", name, "block", block, "error", err)
	}
}

// renderBlock executes one named block from a page template, for htmx
// targets narrower than the content area. Returns false if the block
// failed to render, letting the caller fall back to a full render.
func (s *WebServer) renderBlock(w http.ResponseWriter, name, block string, data any) bool {
	t, ok := s.templates[name]
	if !ok {
		return false
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, block, data); err != nil {
		s.logger.Error("template block render failed", "template", name, "block", block, "error", err)
		return false
	}
	return true
}

// formatBytes renders a byte count in binary units with up to two
// decimals and trailing zeros trimmed: 0 → "0 B", 1024 → "1 KB",
// 1536 → "1.5 KB".
func formatBytes(n int64) string {
	if n <= 0 {
		return "0 B"
	}
	const k = 1024
	sizes := []string{"B", "KB", "MB", "GB"}
	value := float64(n)
	i := 0
	for value >= k && i < len(sizes)-1 {
		value /= k
		i++
	}
	rounded := math.Round(value*100) / 100
	return strconv.FormatFloat(rounded, 'f', -1, 64) + " " + sizes[i]
}

// formatMB renders a megabyte figure with one decimal.
func formatMB(mb float64) string {
	return fmt.Sprintf("%.1f MB", mb)
}

// formatNumber renders an integer with thousands separators.
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	return string(out)
}

// usageClass maps a quota usage percentage to a CSS class: above 90 is
// danger, above 70 is warning, anything else is unstyled.
func usageClass(pct float64) string {
	switch {
	case pct > 90:
		return "danger"
	case pct > 70:
		return "warning"
	default:
		return ""
	}
}
