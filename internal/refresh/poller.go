// Package refresh owns the periodic data fetch cycle behind the
// dashboard. One poller goroutine owns one ticker; interval changes go
// through Reconfigure rather than spawning a second timer, so there is
// never more than one cadence in flight.
package refresh

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vdbops/vantage/internal/backend"
	"github.com/vdbops/vantage/internal/events"
)

// Backend is the subset of the API client the poller needs. Declared
// here so tests can substitute a fake without a live server.
type Backend interface {
	Status(ctx context.Context) (backend.StatusResult, error)
	ListCollections(ctx context.Context) ([]string, error)
	EnrichCollections(ctx context.Context, names []string) []backend.Collection
	Telemetry(ctx context.Context) (backend.Telemetry, error)
}

// AuthChecker gates cycles on a live session. Ticks while logged out
// are silent no-ops.
type AuthChecker interface {
	IsAuthenticated() bool
}

// Snapshot is the result of one refresh cycle. Each section carries
// its own error: a failed telemetry fetch does not blank out the
// collections table.
type Snapshot struct {
	Cycle uint64
	Taken time.Time

	Status    backend.StatusResult
	StatusErr error

	Collections    []backend.Collection
	CollectionsErr error

	Telemetry    backend.Telemetry
	TelemetryErr error
}

// Config configures the refresh poller.
type Config struct {
	// Backend provides the data each cycle fetches.
	Backend Backend

	// Auth gates cycles on an authenticated session.
	Auth AuthChecker

	// Bus receives cycle lifecycle events. May be nil.
	Bus *events.Bus

	// Interval is the initial cycle cadence.
	Interval time.Duration

	// Logger for structured logging.
	Logger *slog.Logger
}

// Poller periodically fetches status, collections, and telemetry, and
// keeps the latest snapshot for page handlers to render. Cycles carry
// a monotonic ID; a cycle that finishes after a newer one has already
// been applied is discarded instead of overwriting fresher data.
type Poller struct {
	cfg Config

	cycle       atomic.Uint64
	reconfigure chan time.Duration
	trigger     chan struct{}

	mu          sync.RWMutex
	snapshot    Snapshot
	lastApplied uint64
}

// NewPoller creates a refresh poller. Call Start to begin cycling.
func NewPoller(cfg Config) *Poller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &Poller{
		cfg:         cfg,
		reconfigure: make(chan time.Duration, 1),
		trigger:     make(chan struct{}, 1),
	}
}

// Start runs the polling loop until ctx is cancelled. It blocks. Each
// cycle runs in its own goroutine so a slow backend never delays a
// Reconfigure or shutdown.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	// Cycle immediately on start.
	go p.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case interval := <-p.reconfigure:
			ticker.Reset(interval)
			p.cfg.Logger.Info("refresh interval changed", "interval", interval)
		case <-p.trigger:
			go p.runCycle(ctx)
		case <-ticker.C:
			go p.runCycle(ctx)
		}
	}
}

// Reconfigure changes the cycle cadence. The running ticker is reset;
// no second timer is created. Intervals of zero or less are ignored.
func (p *Poller) Reconfigure(interval time.Duration) {
	if interval <= 0 {
		return
	}
	// Replace any pending reconfigure rather than queueing behind it.
	select {
	case <-p.reconfigure:
	default:
	}
	p.reconfigure <- interval
}

// Trigger requests an immediate cycle outside the timer cadence. A
// trigger while one is already pending is coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Snapshot returns the most recently applied cycle result. The zero
// Snapshot (Cycle == 0) means no cycle has completed yet.
func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

func (p *Poller) runCycle(ctx context.Context) {
	if !p.cfg.Auth.IsAuthenticated() {
		return
	}

	cycle := p.cycle.Add(1)
	started := time.Now()
	p.cfg.Bus.Publish(events.Event{
		Timestamp: started,
		Source:    events.SourceRefresh,
		Kind:      events.KindRefreshStart,
		Data:      map[string]any{"cycle": cycle},
	})

	snap := Snapshot{Cycle: cycle, Taken: started}

	snap.Status, snap.StatusErr = p.cfg.Backend.Status(ctx)
	if snap.StatusErr != nil {
		p.reportFailure(cycle, "status", snap.StatusErr)
	}

	names, err := p.cfg.Backend.ListCollections(ctx)
	if err != nil {
		snap.CollectionsErr = err
		p.reportFailure(cycle, "collections", err)
	} else {
		snap.Collections = p.cfg.Backend.EnrichCollections(ctx, names)
	}

	snap.Telemetry, snap.TelemetryErr = p.cfg.Backend.Telemetry(ctx)
	if snap.TelemetryErr != nil {
		p.reportFailure(cycle, "telemetry", snap.TelemetryErr)
	}

	if !p.apply(snap) {
		p.cfg.Logger.Debug("stale refresh cycle discarded", "cycle", cycle)
		return
	}

	p.cfg.Bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceRefresh,
		Kind:      events.KindRefreshComplete,
		Data: map[string]any{
			"cycle":       cycle,
			"online":      snap.Status.Online(),
			"collections": len(snap.Collections),
			"elapsed_ms":  time.Since(started).Milliseconds(),
		},
	})
}

// apply installs a snapshot unless a newer cycle already landed.
func (p *Poller) apply(snap Snapshot) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if snap.Cycle <= p.lastApplied {
		return false
	}
	p.snapshot = snap
	p.lastApplied = snap.Cycle
	return true
}

func (p *Poller) reportFailure(cycle uint64, step string, err error) {
	p.cfg.Logger.Warn("refresh step failed", "cycle", cycle, "step", step, "error", err)
	p.cfg.Bus.Publish(events.Event{
		Timestamp: time.Now(),
		Source:    events.SourceRefresh,
		Kind:      events.KindFetchFailed,
		Data:      map[string]any{"cycle": cycle, "step": step, "error": err.Error()},
	})
}
