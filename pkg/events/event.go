package events

import "time"

// Event is anything that can travel over the event bus.
type Event interface {
	// EventType returns the subject suffix, e.g. "NOTE_CREATED".
	EventType() string

	Payload() map[string]interface{}

	Timestamp() time.Time
}

const (
	NoteCreated               = "NOTE_CREATED"
	NoteUpdated               = "NOTE_UPDATED"
	NoteDeleted               = "NOTE_DELETED"
	InterviewSessionCompleted = "INTERVIEW_SESSION_COMPLETED"
	OccurredAtKey             = "occurred_at"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func New(eventType string, data map[string]interface{}, at time.Time) BaseEvent {
	if data == nil {
		data = map[string]interface{}{}
	}
	return BaseEvent{Type: eventType, Data: data, OccurredAt: at}
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

// String returns the payload value under key, or "" when it is absent or not a string.
func String(e Event, key string) string {
	if v, ok := e.Payload()[key].(string); ok {
		return v
	}
	return ""
}
