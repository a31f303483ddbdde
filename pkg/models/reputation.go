package models

// ReputationRecord is the enrichment data for a source address.
// Fallback marks records synthesized locally when the external lookup
// was unavailable; downstream consumers treat both kinds identically.
type ReputationRecord struct {
	OriginRegion string `json:"origin_region"`
	AbuseScore   int    `json:"abuse_score"`
	Fallback     bool   `json:"fallback,omitempty"`
}
