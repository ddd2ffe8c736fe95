package kelly

import (
	"sync"
)

// ExposureTracker tracks the cumulative bankroll fraction committed to open
// bets so the total exposure cap can be enforced across simultaneous stakes.
type ExposureTracker struct {
	maxTotal float64
	open     map[string]float64
	total    float64
	mu       sync.RWMutex
}

// NewExposureTracker creates a tracker with the given cumulative cap
func NewExposureTracker(maxTotal float64) *ExposureTracker {
	return &ExposureTracker{
		maxTotal: maxTotal,
		open:     make(map[string]float64),
	}
}

// Headroom returns the exposure fraction still available
func (t *ExposureTracker) Headroom() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	headroom := t.maxTotal - t.total
	if headroom < 0 {
		return 0
	}
	return headroom
}

// Commit records an open stake for a bet key
func (t *ExposureTracker) Commit(key string, fraction float64) {
	if fraction <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.open[key] += fraction
	t.total += fraction
}

// Release frees the exposure held by a bet key once it settles
func (t *ExposureTracker) Release(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if fraction, ok := t.open[key]; ok {
		t.total -= fraction
		delete(t.open, key)
	}
}

// Total returns the currently committed exposure fraction
func (t *ExposureTracker) Total() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}
