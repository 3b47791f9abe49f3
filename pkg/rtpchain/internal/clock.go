// Package internal holds helpers shared by the rtpchain packages.
package internal

import (
	"sync"
	"time"
)

// Clock returns the current time. Interceptors that measure rates take a
// Clock so tests can drive time by hand.
type Clock interface {
	Now() time.Time
}

// MonotonicClock reads time.Now, which carries a monotonic reading.
type MonotonicClock struct{}

// Now returns the current system time.
func (MonotonicClock) Now() time.Time {
	return time.Now()
}

// MockClock is a manually advanced Clock. It is safe for concurrent use since
// interceptors read it from several media goroutines at once.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMockClock creates a MockClock at t, or at a fixed start time if t is zero.
func NewMockClock(t time.Time) *MockClock {
	if t.IsZero() {
		t = time.Unix(1000000000, 0)
	}
	return &MockClock{current: t}
}

// Now returns the mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves the clock forward. It panics on a negative duration.
func (m *MockClock) Advance(d time.Duration) {
	if d < 0 {
		panic("MockClock.Advance: duration must be non-negative")
	}
	m.mu.Lock()
	m.current = m.current.Add(d)
	m.mu.Unlock()
}
