package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"microsoc/pkg/models"
)

// SourceTotal is a per-address event tally in a summary.
type SourceTotal struct {
	SourceAddress string `json:"source_address"`
	Count         int    `json:"count"`
}

// Summary aggregates a persisted event log for offline review.
type Summary struct {
	TotalEvents   int            `json:"total_events"`
	BySeverity    map[string]int `json:"by_severity"`
	ByAttackType  map[string]int `json:"by_attack_type"`
	TopSources    []SourceTotal  `json:"top_sources"`
	FallbackShare float64        `json:"fallback_share"`
}

// LoadEventsJSONL reads persisted events from JSONL. Lines that do not
// parse are skipped so a partially written log still summarizes.
func LoadEventsJSONL(path string) ([]*models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	events := make([]*models.Event, 0, 4096)
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 8*1024*1024)

	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		var ev models.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			continue
		}
		events = append(events, &ev)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan input: %w", err)
	}
	return events, nil
}

// Summarize builds a Summary over events, keeping the topN busiest sources.
func Summarize(events []*models.Event, topN int) Summary {
	if topN <= 0 {
		topN = 10
	}

	summary := Summary{
		TotalEvents:  len(events),
		BySeverity:   make(map[string]int),
		ByAttackType: make(map[string]int),
	}

	sources := make(map[string]int, len(events))
	fallbacks := 0
	for _, ev := range events {
		summary.BySeverity[string(ev.Severity)]++
		summary.ByAttackType[ev.AttackType]++
		sources[ev.SourceAddress]++
		if ev.Fallback {
			fallbacks++
		}
	}

	totals := make([]SourceTotal, 0, len(sources))
	for addr, n := range sources {
		totals = append(totals, SourceTotal{SourceAddress: addr, Count: n})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Count != totals[j].Count {
			return totals[i].Count > totals[j].Count
		}
		return totals[i].SourceAddress < totals[j].SourceAddress
	})
	if len(totals) > topN {
		totals = totals[:topN]
	}
	summary.TopSources = totals

	if len(events) > 0 {
		summary.FallbackShare = float64(fallbacks) / float64(len(events))
	}
	return summary
}
