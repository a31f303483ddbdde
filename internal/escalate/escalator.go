package escalate

import (
	"fmt"

	"microsoc/internal/incidents"
	"microsoc/internal/logger"
	"microsoc/internal/metrics"
	"microsoc/pkg/models"
)

// Escalator decides whether a classified event opens a new incident.
type Escalator struct {
	store *incidents.Store
}

// NewEscalator creates an escalator backed by the incident store.
func NewEscalator(store *incidents.Store) *Escalator {
	return &Escalator{store: store}
}

// MaybeEscalate applies the escalation rules in order, first match wins:
// a traffic spike escalates regardless of severity, then Critical severity.
// Creation is deduplicated against open incidents with the same description;
// a continuing condition is represented by the incident already standing.
// Returns the created incident, or nil when nothing was escalated.
func (e *Escalator) MaybeEscalate(event *models.Event, isSpike bool) *models.Incident {
	var description string
	switch {
	case isSpike:
		description = fmt.Sprintf("Traffic spike from %s (%s)", event.SourceAddress, event.OriginRegion)
	case event.Severity == models.SeverityCritical:
		description = fmt.Sprintf("Critical threat from %s (score %d)", event.OriginRegion, event.AbuseScore)
	default:
		return nil
	}

	inc, created := e.store.OpenIfAbsent(description, event.ID, event.Timestamp)
	if !created {
		logger.Debugf("Open incident already standing for: %s", description)
		return nil
	}

	metrics.IncidentsOpened.Inc()
	logger.Infof("Incident opened: %s (event=%s)", description, event.ID)
	return &inc
}
