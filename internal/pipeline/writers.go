package pipeline

import "microsoc/pkg/models"

// EventWriter persists enriched events to the append-only store.
type EventWriter interface {
	WriteEvents(events []*models.Event) error
	Close() error
}

// IncidentWriter persists newly opened incidents.
type IncidentWriter interface {
	WriteIncidents(incidents []*models.Incident) error
	Close() error
}

// SourceStateWriter updates a derived per-source state index.
type SourceStateWriter interface {
	WriteEvents(events []*models.Event) error
	Close() error
}
