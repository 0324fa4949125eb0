package web

import (
	"fmt"
	"time"
)

// PageData carries the fields every page template needs: branding,
// active nav highlighting, theme, and an optional one-shot message.
type PageData struct {
	BrandName string
	ActiveNav string
	Theme     string
	Username  string
	Error     string
	Notice    string
}

// pageData builds the shared template context for the current session.
func (s *WebServer) pageData(nav string) PageData {
	data := PageData{
		BrandName: s.brandName,
		ActiveNav: nav,
		Theme:     "light",
	}
	if s.session != nil {
		data.Theme = s.session.Theme()
		data.Username = s.session.Username()
	}
	return data
}

// timeAgo renders a timestamp as a relative age. Zero times render as
// an em dash placeholder.
func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	}
}

// formatTime renders an absolute timestamp for detail views.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "—"
	}
	return t.Format("2006-01-02 15:04")
}

// truncate shortens s to at most n runes, appending an ellipsis when
// anything was cut and there is room for one.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}
