package webhook

import (
	"time"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// EventPayload is the JSON body POSTed to the webhook URL.
type EventPayload struct {
	ID        uuid.UUID        `json:"id"`
	Type      domain.EventType `json:"type"`
	RunID     *uuid.UUID       `json:"run_id,omitempty"`
	TripID    uuid.UUID        `json:"trip_id"`
	Data      interface{}      `json:"data"`
	Timestamp time.Time        `json:"timestamp"`
}

func newEventPayload(event domain.Event) EventPayload {
	p := EventPayload{
		ID:        event.ID,
		Type:      event.Type,
		TripID:    event.TripID,
		Data:      event.Data,
		Timestamp: event.Timestamp,
	}
	if event.RunID != uuid.Nil {
		runID := event.RunID
		p.RunID = &runID
	}
	return p
}

// Job is one pending delivery.
type Job struct {
	EventID   uuid.UUID
	EventType domain.EventType
	Payload   []byte
	Attempts  int
}
