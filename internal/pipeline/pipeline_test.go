package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"microsoc/internal/escalate"
	"microsoc/internal/events"
	"microsoc/internal/incidents"
	"microsoc/internal/pubsub"
	"microsoc/internal/reputation"
	"microsoc/internal/traffic"
	"microsoc/pkg/models"
)

type fixedLookup struct {
	score  int
	region string
}

func (f *fixedLookup) Lookup(ctx context.Context, address string) (models.ReputationRecord, error) {
	return models.ReputationRecord{OriginRegion: f.region, AbuseScore: f.score}, nil
}

type failingEventWriter struct {
	calls int
}

func (w *failingEventWriter) WriteEvents(evs []*models.Event) error {
	w.calls++
	return fmt.Errorf("disk full")
}

func (w *failingEventWriter) Close() error { return nil }

type capturingEventWriter struct {
	events []*models.Event
}

func (w *capturingEventWriter) WriteEvents(evs []*models.Event) error {
	w.events = append(w.events, evs...)
	return nil
}

func (w *capturingEventWriter) Close() error { return nil }

func newTestPipeline(t *testing.T, lookup reputation.Lookup, store *incidents.Store, writer EventWriter, broker *pubsub.Broker) *Pipeline {
	t.Helper()
	resolver, err := reputation.NewResolver(64, lookup)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return New(Options{
		Resolver:    resolver,
		Tracker:     traffic.NewTracker(traffic.Config{Window: 10 * time.Second, Threshold: 5}),
		Escalator:   escalate.NewEscalator(store),
		Recent:      events.NewStore(events.Config{Retention: time.Hour, MaxRecent: 100}),
		Broker:      broker,
		EventWriter: writer,
	})
}

func rawAt(addr string, ts time.Time) models.RawEvent {
	return models.RawEvent{
		Timestamp:     ts,
		SourceAddress: addr,
		AttackType:    "SQL Injection",
		TargetSystem:  "Core API",
	}
}

func TestProcessEnrichesAndClassifies(t *testing.T) {
	store := incidents.NewStore()
	p := newTestPipeline(t, &fixedLookup{score: 42, region: "Western Europe"}, store, nil, nil)
	ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	event, incident := p.Process(context.Background(), rawAt("203.0.113.4", ts))
	if event.ID == "" {
		t.Fatalf("event must get an id")
	}
	if event.Severity != models.SeverityMedium || event.OriginRegion != "Western Europe" || event.AbuseScore != 42 {
		t.Fatalf("unexpected enrichment: %+v", event)
	}
	if incident != nil {
		t.Fatalf("medium severity without spike must not escalate")
	}
}

func TestProcessCriticalEventOpensOneIncident(t *testing.T) {
	store := incidents.NewStore()
	p := newTestPipeline(t, &fixedLookup{score: 85, region: "East Asia"}, store, nil, nil)
	ts := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	_, first := p.Process(context.Background(), rawAt("203.0.113.4", ts))
	if first == nil {
		t.Fatalf("critical event must escalate")
	}
	_, second := p.Process(context.Background(), rawAt("203.0.113.9", ts.Add(time.Second)))
	if second != nil {
		t.Fatalf("same open condition must not create a second incident")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected 1 incident, got %d", got)
	}
}

func TestProcessSpikeEscalatesLowSeverity(t *testing.T) {
	store := incidents.NewStore()
	p := newTestPipeline(t, &fixedLookup{score: 10, region: "Oceania"}, store, nil, nil)
	base := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

	var incident *models.Incident
	for i := 0; i < 6; i++ {
		_, inc := p.Process(context.Background(), rawAt("198.51.100.9", base.Add(time.Duration(i)*time.Second)))
		if inc != nil {
			incident = inc
		}
	}
	if incident == nil {
		t.Fatalf("6 rapid events must open a spike incident despite low severity")
	}
	if got := len(store.List()); got != 1 {
		t.Fatalf("expected exactly one incident, got %d", got)
	}
}

func TestProcessPublishesDespitePersistenceFailure(t *testing.T) {
	store := incidents.NewStore()
	broker := pubsub.NewBroker(8)
	sub := broker.Subscribe()
	defer sub.Close()

	writer := &failingEventWriter{}
	p := newTestPipeline(t, &fixedLookup{score: 30, region: "Africa"}, store, writer, broker)

	p.Process(context.Background(), rawAt("203.0.113.4", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))

	if writer.calls != 1 {
		t.Fatalf("writer should have been attempted once, got %d", writer.calls)
	}
	select {
	case msg := <-sub.C:
		if msg.Type != pubsub.TypeNewEvent {
			t.Fatalf("unexpected message type: %s", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("event must still be published when persistence fails")
	}
}

func TestProcessPersistsEvents(t *testing.T) {
	store := incidents.NewStore()
	writer := &capturingEventWriter{}
	p := newTestPipeline(t, &fixedLookup{score: 30, region: "Africa"}, store, writer, nil)

	event, _ := p.Process(context.Background(), rawAt("203.0.113.4", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))
	if len(writer.events) != 1 || writer.events[0].ID != event.ID {
		t.Fatalf("expected event to be persisted, got %+v", writer.events)
	}
}

func TestProcessLocalAddressIsNeverCritical(t *testing.T) {
	store := incidents.NewStore()
	p := newTestPipeline(t, &fixedLookup{score: 99, region: "East Asia"}, store, nil, nil)

	event, incident := p.Process(context.Background(), rawAt("192.168.1.20", time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)))
	if event.OriginRegion != "Local Network" || event.AbuseScore != 0 || event.Severity != models.SeverityLow {
		t.Fatalf("private address must resolve locally: %+v", event)
	}
	if incident != nil {
		t.Fatalf("local traffic must not escalate on severity")
	}
}
