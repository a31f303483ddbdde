package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"microsoc/internal/classify"
	"microsoc/internal/escalate"
	"microsoc/internal/events"
	"microsoc/internal/logger"
	"microsoc/internal/metrics"
	"microsoc/internal/output/natspub"
	"microsoc/internal/pubsub"
	"microsoc/internal/reputation"
	"microsoc/internal/rules"
	"microsoc/internal/traffic"
	"microsoc/pkg/models"
)

// Source delivers raw events from a producer. Next blocks until an event is
// available or the context ends.
type Source interface {
	Next(ctx context.Context) (models.RawEvent, error)
	Close() error
}

// Pipeline runs every raw event through enrichment, classification, spike
// detection, escalation, persistence and publication. Stages are synchronous
// per event; the pipeline is invoked concurrently for different events.
type Pipeline struct {
	resolver  *reputation.Resolver
	tracker   *traffic.Tracker
	engine    rules.Engine
	escalator *escalate.Escalator
	recent    *events.Store
	broker    *pubsub.Broker

	eventWriter    EventWriter
	incidentWriter IncidentWriter
	stateWriter    SourceStateWriter
	nats           *natspub.Publisher

	workers int
}

// Options wires the pipeline's collaborators. Writers, the rule engine, the
// state writer and the NATS publisher are optional.
type Options struct {
	Resolver  *reputation.Resolver
	Tracker   *traffic.Tracker
	Engine    rules.Engine
	Escalator *escalate.Escalator
	Recent    *events.Store
	Broker    *pubsub.Broker

	EventWriter    EventWriter
	IncidentWriter IncidentWriter
	StateWriter    SourceStateWriter
	NATS           *natspub.Publisher

	Workers int
}

// New creates a pipeline.
func New(opts Options) *Pipeline {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	engine := opts.Engine
	if engine == nil {
		engine = &rules.NoopEngine{}
	}
	return &Pipeline{
		resolver:       opts.Resolver,
		tracker:        opts.Tracker,
		engine:         engine,
		escalator:      opts.Escalator,
		recent:         opts.Recent,
		broker:         opts.Broker,
		eventWriter:    opts.EventWriter,
		incidentWriter: opts.IncidentWriter,
		stateWriter:    opts.StateWriter,
		nats:           opts.NATS,
		workers:        workers,
	}
}

// Process runs one raw event through every stage and returns the enriched
// event plus the incident it opened, if any. Persistence failures are logged
// and counted but never block the live publication path.
func (p *Pipeline) Process(ctx context.Context, raw models.RawEvent) (*models.Event, *models.Incident) {
	ts := raw.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	rep := p.resolver.Resolve(ctx, raw.SourceAddress)

	event := &models.Event{
		ID:            uuid.NewString(),
		Timestamp:     ts,
		SourceAddress: raw.SourceAddress,
		AttackType:    raw.AttackType,
		TargetSystem:  raw.TargetSystem,
		Severity:      classify.Classify(rep.AbuseScore),
		OriginRegion:  rep.OriginRegion,
		AbuseScore:    rep.AbuseScore,
		Fallback:      rep.Fallback,
	}
	event.Tags = p.engine.Apply(event)
	if n := len(event.Tags); n > 0 {
		metrics.RuleMatches.Add(float64(n))
	}

	isSpike := p.tracker.RecordAndCheck(event.SourceAddress, event.Timestamp)
	if isSpike {
		metrics.SpikesDetected.Inc()
	}

	var incident *models.Incident
	if p.escalator != nil {
		incident = p.escalator.MaybeEscalate(event, isSpike)
	}

	p.recent.Add(event)
	p.persist(event, incident)
	p.publish(event, incident)

	metrics.EventsProcessed.Inc()
	metrics.EventsBySeverity.WithLabelValues(string(event.Severity)).Inc()
	return event, incident
}

func (p *Pipeline) persist(event *models.Event, incident *models.Incident) {
	if p.eventWriter != nil {
		if err := p.eventWriter.WriteEvents([]*models.Event{event}); err != nil {
			metrics.PersistenceFailures.Inc()
			logger.Errorf("Failed to persist event %s: %v", event.ID, err)
		}
	}
	if p.incidentWriter != nil && incident != nil {
		if err := p.incidentWriter.WriteIncidents([]*models.Incident{incident}); err != nil {
			metrics.PersistenceFailures.Inc()
			logger.Errorf("Failed to persist incident %s: %v", incident.ID, err)
		}
	}
	if p.stateWriter != nil {
		if err := p.stateWriter.WriteEvents([]*models.Event{event}); err != nil {
			logger.Warnf("Failed to update source state for %s: %v", event.SourceAddress, err)
		}
	}
}

func (p *Pipeline) publish(event *models.Event, incident *models.Incident) {
	if p.broker != nil {
		p.broker.Publish(pubsub.Message{Type: pubsub.TypeNewEvent, Data: event})
		if incident != nil {
			p.broker.Publish(pubsub.Message{Type: pubsub.TypeNewIncident, Data: incident})
		}
	}
	if err := p.nats.PublishEvent(event); err != nil {
		logger.Warnf("Failed to publish event to NATS: %v", err)
	}
	if incident != nil {
		if err := p.nats.PublishIncident(incident); err != nil {
			logger.Warnf("Failed to publish incident to NATS: %v", err)
		}
	}
}

// Run consumes the source until the context ends: one reader goroutine
// feeding a worker pool. Returns the context error on shutdown.
func (p *Pipeline) Run(ctx context.Context, source Source) error {
	logger.Infof("Event pipeline started (workers=%d)", p.workers)

	rawCh := make(chan models.RawEvent, p.workers*4)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(rawCh)
		p.readLoop(ctx, source, rawCh)
	}()

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for raw := range rawCh {
				p.Process(ctx, raw)
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	logger.Infof("Event pipeline stopped")
	return ctx.Err()
}

func (p *Pipeline) readLoop(ctx context.Context, source Source, out chan<- models.RawEvent) {
	for {
		raw, err := source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("Failed to read raw event: %v", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case out <- raw:
		}
	}
}

// Close releases pipeline resources.
func (p *Pipeline) Close() error {
	if p.incidentWriter != nil {
		if err := p.incidentWriter.Close(); err != nil {
			logger.Errorf("Failed to close incident writer: %v", err)
		}
	}
	if p.stateWriter != nil {
		if err := p.stateWriter.Close(); err != nil {
			logger.Errorf("Failed to close source-state writer: %v", err)
		}
	}
	if err := p.nats.Close(); err != nil {
		logger.Errorf("Failed to close NATS publisher: %v", err)
	}
	if p.eventWriter != nil {
		return p.eventWriter.Close()
	}
	return nil
}
