package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"microsoc/pkg/models"
)

func TestLoadEventsJSONLSkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	content := `{"id":"a","timestamp":"2026-06-01T09:00:00Z","source_address":"203.0.113.4","attack_type":"DDoS","severity":"High"}
not json at all

{"id":"b","timestamp":"2026-06-01T09:00:01Z","source_address":"203.0.113.5","attack_type":"XSS","severity":"Low","fallback":true}
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	events, err := LoadEventsJSONL(path)
	if err != nil {
		t.Fatalf("LoadEventsJSONL: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != "a" || events[1].ID != "b" {
		t.Fatalf("unexpected order: %s, %s", events[0].ID, events[1].ID)
	}
}

func TestLoadEventsJSONLMissingFile(t *testing.T) {
	if _, err := LoadEventsJSONL(filepath.Join(t.TempDir(), "absent.jsonl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestSummarize(t *testing.T) {
	ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	mk := func(addr, attack string, sev models.Severity, fallback bool) *models.Event {
		return &models.Event{
			Timestamp:     ts,
			SourceAddress: addr,
			AttackType:    attack,
			Severity:      sev,
			Fallback:      fallback,
		}
	}
	events := []*models.Event{
		mk("203.0.113.4", "DDoS", models.SeverityHigh, false),
		mk("203.0.113.4", "DDoS", models.SeverityHigh, true),
		mk("203.0.113.4", "XSS", models.SeverityLow, false),
		mk("203.0.113.5", "XSS", models.SeverityLow, true),
	}

	s := Summarize(events, 1)
	if s.TotalEvents != 4 {
		t.Fatalf("total = %d", s.TotalEvents)
	}
	if s.BySeverity["High"] != 2 || s.BySeverity["Low"] != 2 {
		t.Fatalf("severity counts wrong: %v", s.BySeverity)
	}
	if s.ByAttackType["DDoS"] != 2 || s.ByAttackType["XSS"] != 2 {
		t.Fatalf("attack counts wrong: %v", s.ByAttackType)
	}
	if len(s.TopSources) != 1 || s.TopSources[0].SourceAddress != "203.0.113.4" || s.TopSources[0].Count != 3 {
		t.Fatalf("top sources wrong: %v", s.TopSources)
	}
	if s.FallbackShare != 0.5 {
		t.Fatalf("fallback share = %v", s.FallbackShare)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, 0)
	if s.TotalEvents != 0 || s.FallbackShare != 0 || len(s.TopSources) != 0 {
		t.Fatalf("unexpected summary for no events: %+v", s)
	}
}
