// Package clock provides the logical timestamp source used when events are
// created.
package clock

import (
	"sync"
	"time"

	"github.com/alfredjeanlab/ballot/internal/model"
)

// Source returns the current logical timestamp.
type Source interface {
	Now() model.Timestamp
}

// Monotonic turns a wall clock into a non-decreasing nanosecond source.
// When the wall clock steps backwards, the last returned value is repeated.
type Monotonic struct {
	mu   sync.Mutex
	now  func() time.Time
	last model.Timestamp
}

// NewMonotonic returns a source backed by time.Now.
func NewMonotonic() *Monotonic {
	return &Monotonic{now: time.Now}
}

// WithClock overrides the wall clock for testing.
func (m *Monotonic) WithClock(now func() time.Time) *Monotonic {
	m.now = now
	return m
}

// Resume makes the source never return less than ts, e.g. the created_at of
// the newest event loaded from storage.
func (m *Monotonic) Resume(ts model.Timestamp) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ts > m.last {
		m.last = ts
	}
}

// Now implements Source.
func (m *Monotonic) Now() model.Timestamp {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ts model.Timestamp
	if n := m.now().UnixNano(); n > 0 {
		ts = model.Timestamp(n)
	}
	if ts < m.last {
		return m.last
	}
	m.last = ts
	return ts
}

// Fixed is a Source that always returns the same value.
type Fixed model.Timestamp

// Now implements Source.
func (f Fixed) Now() model.Timestamp { return model.Timestamp(f) }
