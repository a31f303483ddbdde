package escalate

import (
	"strings"
	"testing"
	"time"

	"microsoc/internal/incidents"
	"microsoc/pkg/models"
)

func testEvent(addr string, severity models.Severity, score int) *models.Event {
	return &models.Event{
		ID:            "ev-" + addr,
		Timestamp:     time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
		SourceAddress: addr,
		AttackType:    "SQL Injection",
		Severity:      severity,
		OriginRegion:  "East Asia",
		AbuseScore:    score,
	}
}

func TestSpikeEscalatesRegardlessOfSeverity(t *testing.T) {
	e := NewEscalator(incidents.NewStore())

	inc := e.MaybeEscalate(testEvent("203.0.113.7", models.SeverityLow, 10), true)
	if inc == nil {
		t.Fatalf("spike with low severity must still escalate")
	}
	if !strings.Contains(inc.Description, "203.0.113.7") || !strings.Contains(inc.Description, "East Asia") {
		t.Fatalf("unexpected description: %s", inc.Description)
	}
	if !strings.HasPrefix(inc.Description, "Traffic spike from") {
		t.Fatalf("spike rule must win: %s", inc.Description)
	}
}

func TestCriticalSeverityEscalates(t *testing.T) {
	e := NewEscalator(incidents.NewStore())

	inc := e.MaybeEscalate(testEvent("203.0.113.8", models.SeverityCritical, 85), false)
	if inc == nil {
		t.Fatalf("critical event must escalate")
	}
	if inc.Description != "Critical threat from East Asia (score 85)" {
		t.Fatalf("unexpected description: %s", inc.Description)
	}
}

func TestNonSpikeNonCriticalDoesNotEscalate(t *testing.T) {
	e := NewEscalator(incidents.NewStore())
	if inc := e.MaybeEscalate(testEvent("203.0.113.9", models.SeverityHigh, 70), false); inc != nil {
		t.Fatalf("unexpected escalation: %+v", inc)
	}
}

func TestDuplicateConditionCreatesOneIncident(t *testing.T) {
	store := incidents.NewStore()
	e := NewEscalator(store)

	first := e.MaybeEscalate(testEvent("203.0.113.10", models.SeverityCritical, 85), false)
	second := e.MaybeEscalate(testEvent("203.0.113.11", models.SeverityCritical, 85), false)
	if first == nil {
		t.Fatalf("first critical event must escalate")
	}
	if second != nil {
		t.Fatalf("same open condition must not spawn a second incident")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected 1 incident, got %d", got)
	}
}

func TestResolvedConditionCanReopen(t *testing.T) {
	store := incidents.NewStore()
	e := NewEscalator(store)

	first := e.MaybeEscalate(testEvent("203.0.113.12", models.SeverityLow, 5), true)
	if err := store.Resolve(first.ID, "op1", time.Now()); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second := e.MaybeEscalate(testEvent("203.0.113.12", models.SeverityLow, 5), true)
	if second == nil {
		t.Fatalf("a spike after resolution should open a new incident")
	}
	if second.ID == first.ID {
		t.Fatalf("expected a distinct incident")
	}
}
