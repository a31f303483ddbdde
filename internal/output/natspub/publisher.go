package natspub

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"

	"microsoc/internal/logger"
	"microsoc/pkg/models"
)

// Config configures the NATS publisher.
type Config struct {
	URL           string
	SubjectPrefix string
}

// Publisher mirrors events and incidents onto NATS subjects for downstream
// consumers (SIEM forwarders, notification services). All methods are
// nil-receiver safe so the pipeline can treat publication as optional.
type Publisher struct {
	conn   *nats.Conn
	prefix string
}

// NewPublisher connects to NATS.
func NewPublisher(cfg Config) (*Publisher, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = "microsoc"
	}

	conn, err := nats.Connect(cfg.URL, nats.Name("microsoc-publisher"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	logger.Infof("NATS publisher connected: %s", cfg.URL)
	return &Publisher{conn: conn, prefix: cfg.SubjectPrefix}, nil
}

// PublishEvent publishes an enriched event on <prefix>.events.
func (p *Publisher) PublishEvent(event *models.Event) error {
	if p == nil || event == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.prefix + ".events",
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("x-event-id", event.ID)
	msg.Header.Set("x-source-address", event.SourceAddress)
	msg.Header.Set("x-severity", string(event.Severity))
	msg.Header.Set("x-abuse-score", strconv.Itoa(event.AbuseScore))

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// PublishIncident publishes a newly opened incident on <prefix>.incidents.
func (p *Publisher) PublishIncident(inc *models.Incident) error {
	if p == nil || inc == nil {
		return nil
	}

	data, err := json.Marshal(inc)
	if err != nil {
		return fmt.Errorf("failed to marshal incident: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.prefix + ".incidents",
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set("x-incident-id", inc.ID)
	msg.Header.Set("x-event-id", inc.EventID)

	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish incident: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	p.conn.Close()
	return nil
}
