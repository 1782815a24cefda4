package service

import (
	"sync"
	"time"
)

// SlidingWindow is an in-memory per-key rate limiter counting events inside
// a rolling time window. It is safe for concurrent use. Stale keys are
// cleaned up by a background goroutine.
type SlidingWindow struct {
	mu     sync.Mutex
	keys   map[string][]time.Time
	limit  int
	window time.Duration
}

// NewSlidingWindow creates a limiter allowing up to limit events per key in
// any window-sized interval. It starts a background goroutine that removes
// idle keys.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	sw := &SlidingWindow{
		keys:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
	}
	go sw.cleanup()
	return sw
}

// Allow reports whether the key may proceed, recording the event if so.
// Each call prunes events that have slid out of the window.
func (sw *SlidingWindow) Allow(key string) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-sw.window)

	events := sw.keys[key]
	kept := events[:0]
	for _, ts := range events {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= sw.limit {
		sw.keys[key] = kept
		return false
	}
	sw.keys[key] = append(kept, now)
	return true
}

// cleanup runs periodically and drops keys whose last event has slid out of
// the window.
func (sw *SlidingWindow) cleanup() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		sw.mu.Lock()
		cutoff := time.Now().Add(-sw.window)
		for key, events := range sw.keys {
			if len(events) == 0 || !events[len(events)-1].After(cutoff) {
				delete(sw.keys, key)
			}
		}
		sw.mu.Unlock()
	}
}
