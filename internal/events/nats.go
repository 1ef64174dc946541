package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// StreamConfig describes the JetStream stream events are stored in.
type StreamConfig struct {
	Name     string
	Subjects []string
}

// Config configures a NATSPublisher.
type Config struct {
	URL            string
	Name           string
	Stream         StreamConfig
	ConnectTimeout time.Duration
}

// DefaultStream is the stream used for battery events.
func DefaultStream(name string) StreamConfig {
	if strings.TrimSpace(name) == "" {
		name = "VPP_BATTERIES"
	}
	return StreamConfig{Name: name, Subjects: []string{"vpp.batteries.>"}}
}

// NATSPublisher publishes events to a JetStream stream. The event type is the
// subject and the event id is the deduplication id.
type NATSPublisher struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewPublisher connects to NATS and ensures the configured stream exists.
func NewPublisher(cfg Config) (*NATSPublisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("events: NATS URL is required")
	}
	if strings.TrimSpace(cfg.Stream.Name) == "" || len(cfg.Stream.Subjects) == 0 {
		return nil, errors.New("events: stream name and subjects are required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	conn, err := nats.Connect(cfg.URL, nats.Name(cfg.Name), nats.Timeout(timeout))
	if err != nil {
		return nil, fmt.Errorf("events: connecting to NATS: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: creating JetStream context: %w", err)
	}
	if err := ensureStream(js, cfg.Stream); err != nil {
		conn.Close()
		return nil, err
	}

	return &NATSPublisher{conn: conn, js: js}, nil
}

func ensureStream(js nats.JetStreamContext, stream StreamConfig) error {
	_, err := js.StreamInfo(stream.Name)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("events: looking up stream %s: %w", stream.Name, err)
	}
	if _, err := js.AddStream(&nats.StreamConfig{
		Name:     stream.Name,
		Subjects: stream.Subjects,
		Storage:  nats.FileStorage,
	}); err != nil {
		return fmt.Errorf("events: creating stream %s: %w", stream.Name, err)
	}
	return nil
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, event Event) error {
	if strings.TrimSpace(event.Type) == "" {
		return errors.New("events: event type is required")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshaling event: %w", err)
	}
	if _, err := p.js.Publish(event.Type, data, nats.MsgId(event.ID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("events: publishing %s: %w", event.Type, err)
	}
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
