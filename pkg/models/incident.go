package models

import "time"

// IncidentStatus is the lifecycle state of an incident.
type IncidentStatus string

const (
	StatusOpen       IncidentStatus = "Open"
	StatusInProgress IncidentStatus = "In Progress"
	StatusResolved   IncidentStatus = "Resolved"
)

// Incident is a trackable escalation created from a qualifying event.
// Incidents are never deleted; resolution is the only mutation.
type Incident struct {
	ID          string         `json:"id"`
	EventID     string         `json:"event_id"`
	Description string         `json:"description"`
	Status      IncidentStatus `json:"status"`
	ResolvedBy  string         `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}
