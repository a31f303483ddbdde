package events

import (
	"sync"
	"time"

	"microsoc/pkg/models"
)

// Config controls the recent-event buffer.
type Config struct {
	Retention time.Duration
	MaxRecent int
}

// Store keeps a bounded window of recent events for queries and aggregates.
// Durable history lives in the append-only sinks; this buffer serves the
// live dashboard view. Events older than the retention window are evicted
// on insert.
type Store struct {
	mu     sync.Mutex
	cfg    Config
	recent []*models.Event // oldest first
}

// SourceCount is a per-address event tally.
type SourceCount struct {
	SourceAddress string `json:"source_address"`
	Count         int    `json:"count"`
}

// NewStore creates a recent-event store.
func NewStore(cfg Config) *Store {
	if cfg.Retention <= 0 {
		cfg.Retention = 10 * time.Minute
	}
	if cfg.MaxRecent <= 0 {
		cfg.MaxRecent = 1000
	}
	return &Store{cfg: cfg}
}

// Add retains an event and evicts expired or overflowing entries.
func (s *Store) Add(event *models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recent = append(s.recent, event)

	cutoff := event.Timestamp.Add(-s.cfg.Retention)
	idx := 0
	for idx < len(s.recent) && s.recent[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		s.recent = s.recent[idx:]
	}
	if len(s.recent) > s.cfg.MaxRecent {
		s.recent = s.recent[len(s.recent)-s.cfg.MaxRecent:]
	}
}

// ListRecent returns up to limit events, newest first. A non-positive limit
// uses the default of 50.
func (s *Store) ListRecent(limit int) []*models.Event {
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.recent)
	if limit > n {
		limit = n
	}
	out := make([]*models.Event, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.recent[i])
	}
	return out
}

// Purge drops all retained events.
func (s *Store) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recent = nil
}

// Len returns the number of retained events.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recent)
}

// TopSource returns the address with the most retained events.
func (s *Store) TopSource() (SourceCount, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(s.recent))
	for _, ev := range s.recent {
		counts[ev.SourceAddress]++
	}

	var top SourceCount
	for addr, n := range counts {
		if n > top.Count || (n == top.Count && addr < top.SourceAddress) {
			top = SourceCount{SourceAddress: addr, Count: n}
		}
	}
	return top, top.Count > 0
}
