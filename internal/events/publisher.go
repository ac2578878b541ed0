// Package events publishes run lifecycle events to NATS JetStream so
// downstream consumers (chat notifiers, dashboards) can react to releases.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/relbuilder/internal/config"
)

// Event types emitted over the run lifecycle.
const (
	TypeRunQueued    = "run.queued"
	TypeRunStarted   = "run.started"
	TypeStepFinished = "run.step_finished"
	TypeRunCompleted = "run.completed"
	TypeRunFailed    = "run.failed"
)

// RunEvent is the wire payload published for each lifecycle transition.
type RunEvent struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id"`
	Pipeline  string    `json:"pipeline"`
	Trigger   string    `json:"trigger,omitempty"`
	Step      string    `json:"step,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher emits run lifecycle events. Implementations must tolerate
// publish failures without failing the run.
type Publisher interface {
	Publish(ctx context.Context, ev RunEvent) error
	Close() error
}

// NoopPublisher is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, RunEvent) error { return nil }
func (NoopPublisher) Close() error                            { return nil }

// NATSPublisher publishes run events to a JetStream stream.
type NATSPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
}

// NewNATSPublisher connects to NATS and ensures the target stream exists.
func NewNATSPublisher(cfg config.EventsConfig) (*NATSPublisher, error) {
	if !cfg.Enabled {
		return nil, fmt.Errorf("event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	p := &NATSPublisher{conn: conn, js: js, subject: cfg.Subject}
	if err := p.ensureStream(cfg.Stream, cfg.Subject); err != nil {
		conn.Close()
		return nil, err
	}

	slog.Info("NATS event publisher initialized",
		"url", cfg.URL,
		"subject", cfg.Subject,
		"stream", cfg.Stream)

	return p, nil
}

// ensureStream creates or updates the JetStream stream covering the subject.
func (p *NATSPublisher) ensureStream(name, subject string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := p.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{subject},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    30 * 24 * time.Hour,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream: %w", err)
	}
	return nil
}

// Publish sends a run event. The caller's context bounds the publish.
func (p *NATSPublisher) Publish(ctx context.Context, ev RunEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := p.js.Publish(ctx, p.subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	slog.Debug("Published run event",
		"type", ev.Type,
		"run_id", ev.RunID,
		"pipeline", ev.Pipeline)

	return nil
}

// Close closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
