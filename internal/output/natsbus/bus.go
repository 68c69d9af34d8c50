// Package natsbus publishes refresh outcomes on a NATS subject.
package natsbus

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"opsdash/internal/logger"
	"opsdash/pkg/models"
)

// DefaultSubject is where outcomes are published when none is configured.
const DefaultSubject = "opsdash.refresh.outcomes"

// Publisher sends refresh outcomes to NATS.
type Publisher struct {
	Conn    *nats.Conn
	subject string
}

// NewPublisher connects to url.
func NewPublisher(url, subject string) (*Publisher, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	if subject == "" {
		subject = DefaultSubject
	}
	conn, err := nats.Connect(url, nats.Name("opsdash"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	logger.Infof("NATS result publisher initialized: %s -> %s", url, subject)
	return &Publisher{Conn: conn, subject: subject}, nil
}

// Subject is the publish subject.
func (p *Publisher) Subject() string {
	return p.subject
}

// WriteOutcomes publishes each outcome as one JSON message and flushes.
func (p *Publisher) WriteOutcomes(outcomes []models.RefreshOutcome) error {
	for _, o := range outcomes {
		data, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal refresh outcome: %w", err)
		}
		if err := p.Conn.Publish(p.subject, data); err != nil {
			return fmt.Errorf("publish refresh outcome: %w", err)
		}
	}
	return p.Conn.Flush()
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	if p.Conn != nil {
		if err := p.Conn.Drain(); err != nil {
			p.Conn.Close()
			return err
		}
		p.Conn.Close()
	}
	return nil
}

// Subscriber receives published outcomes.
type Subscriber struct {
	Conn *nats.Conn
}

// NewSubscriber connects to url.
func NewSubscriber(url string) (*Subscriber, error) {
	if url == "" {
		url = nats.DefaultURL
	}
	conn, err := nats.Connect(url, nats.Name("opsdash-watch"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Subscriber{Conn: conn}, nil
}

// Subscribe calls handler for every outcome on subject. Undecodable
// messages are logged and skipped.
func (s *Subscriber) Subscribe(subject string, handler func(models.RefreshOutcome)) (*nats.Subscription, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	return s.Conn.Subscribe(subject, func(msg *nats.Msg) {
		var o models.RefreshOutcome
		if err := json.Unmarshal(msg.Data, &o); err != nil {
			logger.Warnf("Skipping malformed refresh outcome on %s: %v", msg.Subject, err)
			return
		}
		handler(o)
	})
}

// Close drains and closes the connection.
func (s *Subscriber) Close() {
	if s.Conn != nil {
		s.Conn.Drain()
		s.Conn.Close()
	}
}
