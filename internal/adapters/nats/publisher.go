package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
)

// Publisher implements ports.EventPublisher using NATS JetStream.
type Publisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

var _ ports.EventPublisher = (*Publisher)(nil)

// Streams the publisher writes to.
var streams = []nats.StreamConfig{
	{
		// Only the latest scene per session matters to late joiners.
		Name:              "RISKMAP_SCENES",
		Subjects:          []string{SubjectScenesAll},
		Retention:         nats.LimitsPolicy,
		MaxMsgsPerSubject: 1,
		MaxAge:            1 * time.Hour,
		Storage:           nats.MemoryStorage,
	},
	{
		Name:      "RISKMAP_CHECKPOINTS",
		Subjects:  []string{SubjectCheckpointsAll},
		Retention: nats.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   nats.FileStorage,
	},
}

// NewPublisher connects to NATS and ensures the JetStream streams exist.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist; try update
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js}, nil
}

// PublishScene publishes an encoded scene on the session's subject.
func (p *Publisher) PublishScene(ctx context.Context, sessionID string, data []byte) error {
	_, err := p.js.Publish(SceneSubject(sessionID), data, nats.Context(ctx))
	return err
}

// PublishCheckpointEvent publishes a scored event on the vehicle's subject.
func (p *Publisher) PublishCheckpointEvent(ctx context.Context, event *domain.CheckpointEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(CheckpointSubject(event.VehicleID), data, nats.Context(ctx))
	return err
}

// Conn exposes the underlying connection for plain subscriptions.
func (p *Publisher) Conn() *nats.Conn {
	return p.conn
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	_ = p.conn.Drain()
}

// RawConn creates a plain NATS connection for subscribing (e.g. WebSocket relay).
func RawConn(url string) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("riskmap"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
}
