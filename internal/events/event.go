// Package events builds and publishes battery domain events.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vpp-platform/battery-service/internal/model"
)

// JSONDataContentType is the content type of every event payload.
const JSONDataContentType = "application/json"

const (
	// BatteryCreatedType is both the event type and the NATS subject.
	BatteryCreatedType = "vpp.batteries.created"
	eventSource        = "vpp-battery-service"
)

var (
	newEventID   = uuid.NewString
	marshalEvent = json.Marshal
	now          = time.Now
)

// Event is a CloudEvents-style envelope.
type Event struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Source          string          `json:"source"`
	Type            string          `json:"type"`
	Subject         string          `json:"subject,omitempty"`
	DataContentType string          `json:"datacontenttype"`
	Time            time.Time       `json:"time"`
	Data            json.RawMessage `json:"data"`
}

// Publisher delivers events to a broker.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NoopPublisher) Close() error { return nil }

// BatteryCreatedData is the payload of a battery created event.
type BatteryCreatedData struct {
	BatteryID string          `json:"batteryId"`
	Snapshot  BatterySnapshot `json:"snapshot"`
}

// BatterySnapshot is the battery as stored when the event was raised.
type BatterySnapshot struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Postcode  string    `json:"postcode"`
	Capacity  int64     `json:"capacity"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewBatteryCreatedEvent builds the event raised after a battery is stored.
func NewBatteryCreatedEvent(b model.Battery) (Event, error) {
	if b.ID <= 0 {
		return Event{}, fmt.Errorf("battery id is required")
	}
	if strings.TrimSpace(b.Name) == "" {
		return Event{}, fmt.Errorf("battery name is required")
	}

	id := b.IDString()
	data, err := marshalEvent(BatteryCreatedData{
		BatteryID: id,
		Snapshot: BatterySnapshot{
			ID:        id,
			Name:      b.Name,
			Postcode:  b.Postcode,
			Capacity:  b.Capacity,
			CreatedAt: b.CreatedAt.UTC(),
		},
	})
	if err != nil {
		return Event{}, fmt.Errorf("marshaling battery created payload: %w", err)
	}

	return Event{
		SpecVersion:     "1.0",
		ID:              newEventID(),
		Source:          eventSource,
		Type:            BatteryCreatedType,
		Subject:         id,
		DataContentType: JSONDataContentType,
		Time:            now().UTC(),
		Data:            data,
	}, nil
}
