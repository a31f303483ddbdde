package models

import "time"

// Severity is the classified threat level of an event.
type Severity string

const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// RawEvent is an attack attempt as delivered by a producer, before enrichment.
type RawEvent struct {
	Timestamp     time.Time `json:"timestamp,omitempty"`
	SourceAddress string    `json:"source_address"`
	AttackType    string    `json:"attack_type"`
	TargetSystem  string    `json:"target_system,omitempty"`
}

// Event is a fully enriched attack event. Immutable once created.
type Event struct {
	ID            string    `json:"id"`
	Timestamp     time.Time `json:"timestamp"`
	SourceAddress string    `json:"source_address"`
	AttackType    string    `json:"attack_type"`
	TargetSystem  string    `json:"target_system,omitempty"`
	Severity      Severity  `json:"severity"`
	OriginRegion  string    `json:"origin_region"`
	AbuseScore    int       `json:"abuse_score"`
	Fallback      bool      `json:"fallback,omitempty"`
	Tags          []Tag     `json:"tags,omitempty"`
}
