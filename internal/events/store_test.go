package events

import (
	"fmt"
	"testing"
	"time"

	"microsoc/pkg/models"
)

func eventAt(addr string, ts time.Time) *models.Event {
	return &models.Event{ID: "ev-" + addr + ts.String(), SourceAddress: addr, Timestamp: ts}
}

func TestListRecentNewestFirstWithLimit(t *testing.T) {
	s := NewStore(Config{Retention: time.Hour, MaxRecent: 100})
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		s.Add(eventAt(fmt.Sprintf("addr-%d", i), base.Add(time.Duration(i)*time.Second)))
	}

	got := s.ListRecent(3)
	if len(got) != 3 {
		t.Fatalf("expected 3 events, got %d", len(got))
	}
	if got[0].SourceAddress != "addr-9" || got[2].SourceAddress != "addr-7" {
		t.Fatalf("expected newest first, got %s..%s", got[0].SourceAddress, got[2].SourceAddress)
	}
}

func TestListRecentDefaultLimit(t *testing.T) {
	s := NewStore(Config{Retention: time.Hour, MaxRecent: 100})
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		s.Add(eventAt("a", base.Add(time.Duration(i)*time.Second)))
	}
	if got := len(s.ListRecent(0)); got != 50 {
		t.Fatalf("default limit should be 50, got %d", got)
	}
}

func TestRetentionEvictsOldEvents(t *testing.T) {
	s := NewStore(Config{Retention: 10 * time.Minute, MaxRecent: 100})
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	s.Add(eventAt("old", base))
	s.Add(eventAt("new", base.Add(11*time.Minute)))

	got := s.ListRecent(50)
	if len(got) != 1 || got[0].SourceAddress != "new" {
		t.Fatalf("expected only the fresh event, got %+v", got)
	}
}

func TestPurge(t *testing.T) {
	s := NewStore(Config{})
	s.Add(eventAt("a", time.Now()))
	s.Purge()
	if s.Len() != 0 {
		t.Fatalf("expected empty store after purge, got %d", s.Len())
	}
}

func TestTopSource(t *testing.T) {
	s := NewStore(Config{Retention: time.Hour, MaxRecent: 100})
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		s.Add(eventAt("203.0.113.5", base.Add(time.Duration(i)*time.Second)))
	}
	s.Add(eventAt("198.51.100.1", base.Add(10*time.Second)))

	top, ok := s.TopSource()
	if !ok || top.SourceAddress != "203.0.113.5" || top.Count != 3 {
		t.Fatalf("unexpected top source: %+v ok=%v", top, ok)
	}

	s.Purge()
	if _, ok := s.TopSource(); ok {
		t.Fatalf("expected no top source on empty store")
	}
}

func TestMaxRecentBound(t *testing.T) {
	s := NewStore(Config{Retention: time.Hour, MaxRecent: 5})
	base := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		s.Add(eventAt("a", base.Add(time.Duration(i)*time.Second)))
	}
	if s.Len() != 5 {
		t.Fatalf("expected bound of 5, got %d", s.Len())
	}
}
