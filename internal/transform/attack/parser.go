package attack

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"microsoc/pkg/models"
)

// Parse converts a producer payload into a normalized RawEvent. Field names
// vary between producers; common aliases are accepted. A missing timestamp
// defaults to the arrival time.
func Parse(data []byte, arrival time.Time) (models.RawEvent, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.RawEvent{}, fmt.Errorf("failed to parse raw event: %w", err)
	}

	event := models.RawEvent{
		SourceAddress: getString(raw, "source_address", "sourceAddress", "source_ip", "sourceIP", "src"),
		AttackType:    getString(raw, "attack_type", "attackType", "type"),
		TargetSystem:  getString(raw, "target_system", "targetSystem", "target"),
	}
	if event.SourceAddress == "" {
		return models.RawEvent{}, fmt.Errorf("raw event has no source address")
	}
	if event.AttackType == "" {
		event.AttackType = "Unknown"
	}

	event.Timestamp = arrival
	if ts := getString(raw, "timestamp", "@timestamp", "ts"); ts != "" {
		if t, ok := parseTimestamp(ts); ok {
			event.Timestamp = t
		}
	}

	return event, nil
}

func parseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05.000000",
		"2006-01-02 15:04:05.000",
		"2006-01-02 15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func getString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
