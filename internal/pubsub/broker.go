package pubsub

import (
	"sync"

	"microsoc/internal/metrics"
)

// MessageType identifies a published message.
type MessageType string

const (
	// TypeNewEvent carries a freshly enriched event.
	TypeNewEvent MessageType = "new_event"
	// TypeNewIncident carries a newly opened incident.
	TypeNewIncident MessageType = "new_incident"
	// TypeStateChanged is a coarse re-sync hint for mutations without a
	// natural payload, such as a manual resolution or an event purge.
	TypeStateChanged MessageType = "state_changed"
)

// Message is the fan-out envelope delivered to subscribers.
type Message struct {
	Type MessageType `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Subscriber receives published messages on C until Close is called.
type Subscriber struct {
	C      chan Message
	broker *Broker
	once   sync.Once
}

// Close unsubscribes. Pending messages may still be drained from C; no
// further messages are delivered and the pipeline is unaffected.
func (s *Subscriber) Close() {
	s.once.Do(func() {
		s.broker.unsubscribe(s)
	})
}

// Broker fans out messages to live observers. Publish never blocks: a
// subscriber whose buffer is full misses the message.
type Broker struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	buffer int
}

// NewBroker creates a broker with the given per-subscriber buffer size.
func NewBroker(buffer int) *Broker {
	if buffer <= 0 {
		buffer = 64
	}
	return &Broker{
		subs:   make(map[*Subscriber]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a new observer.
func (b *Broker) Subscribe() *Subscriber {
	sub := &Subscriber{
		C:      make(chan Message, b.buffer),
		broker: b,
	}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Broker) unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	delete(b.subs, sub)
	b.mu.Unlock()
	close(sub.C)
}

// Publish delivers a message to every subscriber without blocking.
func (b *Broker) Publish(msg Message) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.C <- msg:
		default:
			metrics.PublishDrops.Inc()
		}
	}
}

// SubscriberCount returns the number of registered observers.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
