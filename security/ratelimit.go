package security

import (
	"fmt"
	"sync"
	"time"
)

// FixedWindow is an in-process fixed-window rate limiter. Each identifier
// gets at most Max requests per Window, counted from its first request in
// the window.
//
// State lives in process memory only: it resets on restart and is not
// shared between replicas, so a horizontally scaled deployment enforces
// roughly replicas*Max per window.
type FixedWindow struct {
	Class  string
	Window time.Duration
	Max    int

	now func() time.Time

	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewFixedWindow(class string, every time.Duration, limit int) *FixedWindow {
	return &FixedWindow{
		Class:   class,
		Window:  every,
		Max:     limit,
		now:     time.Now,
		windows: make(map[string]*window),
	}
}

// WithClock replaces the limiter's time source.
func (l *FixedWindow) WithClock(now func() time.Time) *FixedWindow {
	l.now = now
	return l
}

// Allow records a request for identifier and reports whether it fits in the
// current window. The error is always nil; the signature matches echo's
// middleware.RateLimiterStore.
func (l *FixedWindow) Allow(identifier string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	w, ok := l.windows[identifier]
	if !ok || !now.Before(w.resetAt) {
		l.windows[identifier] = &window{count: 1, resetAt: now.Add(l.Window)}
		return true, nil
	}
	if w.count >= l.Max {
		return false, nil
	}
	w.count++
	return true, nil
}

func (l *FixedWindow) String() string {
	return fmt.Sprintf("%s %d/%s", l.Class, l.Max, l.Window)
}

// Len reports how many identifiers currently hold a window.
func (l *FixedWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// sweep drops expired windows. It runs at most once per window length, so an
// entry outlives its reset time by less than one extra window.
func (l *FixedWindow) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.Window {
		return
	}
	l.lastSweep = now
	for id, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, id)
		}
	}
}
