// Package activity keeps a short in-memory history of operator-visible
// actions: logins, refresh cycles, customer changes, fetch failures.
// The log is capped; old entries fall off the end. It is a display
// aid, not an audit trail — nothing here is persisted.
package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vdbops/vantage/internal/events"
)

// DefaultCapacity is how many entries the log retains before dropping
// the oldest.
const DefaultCapacity = 50

// Entry is one line of the activity feed.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"ts"`
	Message   string    `json:"message"`
}

// Log is a fixed-capacity, newest-first activity feed. Safe for
// concurrent use.
type Log struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
}

// NewLog creates an activity log. A capacity of zero or less uses
// DefaultCapacity.
func NewLog(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Add prepends a message to the feed, evicting the oldest entry when
// the log is full. Returns the new entry.
func (l *Log) Add(message string) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Message:   message,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	return entry
}

// Addf is Add with fmt.Sprintf formatting.
func (l *Log) Addf(format string, args ...any) Entry {
	return l.Add(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the feed, newest first.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the current number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear empties the feed.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Record subscribes to the bus and appends a line for every event it
// can describe, until the context is cancelled. Run it in its own
// goroutine.
func (l *Log) Record(ctx context.Context, bus *events.Bus) {
	ch := bus.Subscribe(64)
	defer bus.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if msg := Describe(evt); msg != "" {
				l.Add(msg)
			}
		}
	}
}

// Describe renders an event as a feed line. Returns "" for events that
// are too noisy for the operator-facing feed (refresh cycle chatter).
func Describe(e events.Event) string {
	switch e.Kind {
	case events.KindLogin:
		return fmt.Sprintf("Logged in as %v", e.Data["username"])
	case events.KindLogout:
		return "Logged out"
	case events.KindFetchFailed:
		return fmt.Sprintf("Fetch failed: %v (%v)", e.Data["step"], e.Data["error"])
	case events.KindCustomerCreated:
		return fmt.Sprintf("Created customer %v (%v)", e.Data["name"], e.Data["customer_id"])
	case events.KindCustomerDeleted:
		return fmt.Sprintf("Deleted customer %v", e.Data["customer_id"])
	case events.KindDocumentUploaded:
		return fmt.Sprintf("Uploaded %v for customer %v (%v chunks)", e.Data["file_name"], e.Data["customer_id"], e.Data["chunks"])
	case events.KindCollectionCreated:
		return fmt.Sprintf("Created collection %v", e.Data["collection"])
	case events.KindCollectionDeleted:
		return fmt.Sprintf("Deleted collection %v", e.Data["collection"])
	default:
		return ""
	}
}
