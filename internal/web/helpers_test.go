package web

import (
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{-1, "0 B"},
		{1, "1 B"},
		{500, "500 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1048576, "1 MB"},
		{1073741824, "1 GB"},
		{1288490189, "1.2 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestUsageClass(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, ""},
		{50, ""},
		{70, ""},
		{70.1, "warning"},
		{85, "warning"},
		{90, "warning"},
		{90.1, "danger"},
		{100, "danger"},
	}
	for _, tt := range tests {
		if got := usageClass(tt.pct); got != tt.want {
			t.Errorf("usageClass(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-5000, "-5,000"},
	}
	for _, tt := range tests {
		if got := formatNumber(tt.n); got != tt.want {
			t.Errorf("formatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatMB(t *testing.T) {
	if got := formatMB(95); got != "95.0 MB" {
		t.Errorf("formatMB(95) = %q, want 95.0 MB", got)
	}
	if got := formatMB(0.25); got != "0.2 MB" {
		t.Errorf("formatMB(0.25) = %q, want 0.2 MB", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		s    string
		n    int
		want string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"n equals 3", "hello", 3, "hel"},
		{"empty string", "", 5, ""},
		{"unicode preserved", "café latte", 6, "caf..."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.s, tt.n)
			if got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
			}
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"zero time", time.Time{}, "—"},
		{"just now", now.Add(-10 * time.Second), "just now"},
		{"minutes ago", now.Add(-15 * time.Minute), "15m ago"},
		{"hours ago", now.Add(-3 * time.Hour), "3h ago"},
		{"one day ago", now.Add(-24 * time.Hour), "1d ago"},
		{"several days ago", now.Add(-72 * time.Hour), "3d ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeAgo(tt.t)
			if got != tt.want {
				t.Errorf("timeAgo() = %q, want %q", got, tt.want)
			}
		})
	}
}
