package traffic

import (
	"sync"
	"time"
)

// Config controls spike detection behavior.
type Config struct {
	Window    time.Duration
	Threshold int
}

// Tracker maintains per-address sliding windows of recent event timestamps.
// Stale entries are pruned on access; addresses that go permanently silent
// keep their last window until the next event from them (known limitation
// carried over from the source system).
type Tracker struct {
	mu     sync.Mutex
	cfg    Config
	byAddr map[string][]time.Time
}

// NewTracker creates a tracker.
func NewTracker(cfg Config) *Tracker {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 5
	}
	return &Tracker{
		cfg:    cfg,
		byAddr: make(map[string][]time.Time),
	}
}

// RecordAndCheck records a hit for the address at now and reports whether
// the address currently exceeds the burst threshold. The evict-append-count
// sequence runs under one lock so concurrent events from the same address
// never under-count.
func (t *Tracker) RecordAndCheck(address string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := now.Add(-t.cfg.Window)
	hits := t.byAddr[address]

	idx := 0
	for idx < len(hits) && !hits[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		hits = hits[idx:]
	}

	hits = append(hits, now)
	t.byAddr[address] = hits

	return len(hits) > t.cfg.Threshold
}

// TrackedAddresses returns the number of addresses currently holding state.
func (t *Tracker) TrackedAddresses() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byAddr)
}
