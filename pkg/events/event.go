package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is anything published on the rules bus.
type Event interface {
	// EventID is unique per publication.
	EventID() string

	// EventType is the subject suffix, e.g. "RULES_CHANGED".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

type BaseEvent struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurredAt"`
}

func New(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func (e BaseEvent) EventID() string {
	return e.ID
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Envelope is the wire form of an event on every transport.
func Envelope(e Event) BaseEvent {
	return BaseEvent{
		ID:         e.EventID(),
		Type:       e.EventType(),
		Data:       e.Payload(),
		OccurredAt: e.Timestamp(),
	}
}
