package nats

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"intelliprep-notes-be/pkg/events"
)

const (
	StreamName    = "EVENTS"
	SubjectPrefix = "events."
)

func Subject(eventType string) string {
	return SubjectPrefix + eventType
}

// encode writes the payload with the occurrence time folded in, so a
// subscriber can rebuild the event from the message body alone.
func encode(event events.Event) ([]byte, error) {
	body := make(map[string]interface{}, len(event.Payload())+1)
	for k, v := range event.Payload() {
		body[k] = v
	}
	at := event.Timestamp()
	if at.IsZero() {
		at = time.Now()
	}
	body[events.OccurredAtKey] = at.UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return data, nil
}

func decode(subject string, data []byte) (events.BaseEvent, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		return events.BaseEvent{}, fmt.Errorf("failed to unmarshal event data: %w", err)
	}

	occurredAt := time.Now()
	if raw, ok := payload[events.OccurredAtKey].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			occurredAt = t
		}
		delete(payload, events.OccurredAtKey)
	}

	return events.New(strings.TrimPrefix(subject, SubjectPrefix), payload, occurredAt), nil
}
