package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline and enrichment instruments, exposed on the API /metrics endpoint.
var (
	EventsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_events_processed_total",
		Help: "Raw events processed by the pipeline.",
	})

	EventsBySeverity = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "microsoc_events_by_severity_total",
		Help: "Processed events partitioned by classified severity.",
	}, []string{"severity"})

	ReputationCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_reputation_cache_hits_total",
		Help: "Reputation resolutions served from the in-process cache.",
	})

	ReputationLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_reputation_lookup_failures_total",
		Help: "External reputation lookups that failed and were recovered locally.",
	})

	ReputationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_reputation_fallbacks_total",
		Help: "Reputation records synthesized from the address itself.",
	})

	SpikesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_traffic_spikes_total",
		Help: "Events that exceeded the per-address burst threshold.",
	})

	RuleMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_rule_matches_total",
		Help: "Detection rule tags attached to events.",
	})

	IncidentsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_incidents_opened_total",
		Help: "Incidents created by the escalator.",
	})

	IncidentsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_incidents_resolved_total",
		Help: "Incidents resolved by operators.",
	})

	PersistenceFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_persistence_failures_total",
		Help: "Event or incident writes that failed; the live view continues.",
	})

	ConnectedObservers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "microsoc_connected_observers",
		Help: "Currently connected WebSocket observers.",
	})

	PublishDrops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "microsoc_publish_drops_total",
		Help: "Messages dropped for slow subscribers during fan-out.",
	})
)
