package incidents

import (
	"errors"
	"sync"
	"testing"
	"time"

	"microsoc/pkg/models"
)

func TestOpenIfAbsentDeduplicatesOpenIncidents(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	first, created := s.OpenIfAbsent("Critical threat from East Asia (score 85)", "ev-1", now)
	if !created {
		t.Fatalf("first escalation should create an incident")
	}
	second, created := s.OpenIfAbsent("Critical threat from East Asia (score 85)", "ev-2", now.Add(time.Second))
	if created {
		t.Fatalf("duplicate open incident must not be created")
	}
	if second.ID != first.ID {
		t.Fatalf("dedup should return the standing incident")
	}
	if len(s.List()) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(s.List()))
	}
}

func TestResolveThenReopenUnderSameDescription(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	first, _ := s.OpenIfAbsent("Traffic spike from 203.0.113.7 (East Asia)", "ev-1", now)
	if err := s.Resolve(first.ID, "op1", now.Add(time.Minute)); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	second, created := s.OpenIfAbsent("Traffic spike from 203.0.113.7 (East Asia)", "ev-9", now.Add(2*time.Minute))
	if !created {
		t.Fatalf("a new spike after resolution should open a new incident")
	}
	if second.ID == first.ID {
		t.Fatalf("reopened incident must be distinct")
	}
}

func TestResolveIsIdempotentAndKeepsAttribution(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	inc, _ := s.OpenIfAbsent("desc", "ev-1", now)
	if err := s.Resolve(inc.ID, "op1", now.Add(time.Minute)); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	if err := s.Resolve(inc.ID, "op2", now.Add(2*time.Minute)); err != nil {
		t.Fatalf("second resolve should succeed as a no-op: %v", err)
	}

	got := s.List()[0]
	if got.ResolvedBy != "op1" {
		t.Fatalf("attribution rewritten: %s", got.ResolvedBy)
	}
	if got.ResolvedAt == nil || !got.ResolvedAt.Equal(now.Add(time.Minute)) {
		t.Fatalf("resolvedAt changed: %v", got.ResolvedAt)
	}
}

func TestResolveUnknownIDReturnsNotFound(t *testing.T) {
	s := NewStore()
	if err := s.Resolve("missing", "op1", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListOrderAndOpenFilter(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	a, _ := s.OpenIfAbsent("a", "ev-1", base)
	b, _ := s.OpenIfAbsent("b", "ev-2", base.Add(time.Second))
	c, _ := s.OpenIfAbsent("c", "ev-3", base.Add(2*time.Second))
	s.Resolve(b.ID, "op1", base.Add(3*time.Second))

	all := s.List()
	if len(all) != 3 || all[0].ID != c.ID || all[2].ID != a.ID {
		t.Fatalf("expected newest-first ordering, got %+v", all)
	}

	open := s.ListOpen()
	if len(open) != 2 || open[0].ID != c.ID || open[1].ID != a.ID {
		t.Fatalf("expected open incidents c,a got %+v", open)
	}
	if s.OpenCount() != 2 {
		t.Fatalf("OpenCount = %d, want 2", s.OpenCount())
	}
}

func TestResolutionCountsExcludeUnattributed(t *testing.T) {
	s := NewStore()
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	for i, op := range []string{"opA", "opA", "opA", "opB"} {
		inc, _ := s.OpenIfAbsent(string(rune('a'+i)), "ev", base.Add(time.Duration(i)*time.Second))
		s.Resolve(inc.ID, op, base.Add(time.Minute))
	}
	// An incident resolved with no operator recorded counts for nobody.
	inc, _ := s.OpenIfAbsent("z", "ev", base.Add(time.Hour))
	s.Resolve(inc.ID, "", base.Add(2*time.Hour))

	counts := s.ResolutionCounts()
	if counts["opA"] != 3 || counts["opB"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
	if len(counts) != 2 {
		t.Fatalf("unattributed resolution must be excluded: %v", counts)
	}
}

func TestConcurrentEscalationsCreateOneIncident(t *testing.T) {
	s := NewStore()
	now := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	createdCount := make(chan bool, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, created := s.OpenIfAbsent("same condition", "ev", now)
			createdCount <- created
		}()
	}
	wg.Wait()
	close(createdCount)

	total := 0
	for created := range createdCount {
		if created {
			total++
		}
	}
	if total != 1 {
		t.Fatalf("expected exactly one creation, got %d", total)
	}
}

func TestIncidentStartsOpen(t *testing.T) {
	s := NewStore()
	inc, _ := s.OpenIfAbsent("d", "ev", time.Now())
	if inc.Status != models.StatusOpen {
		t.Fatalf("new incident status = %s", inc.Status)
	}
}
