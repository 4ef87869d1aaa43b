package websocket

import (
	"context"
	"encoding/json"
	"time"
)

type MessageType string

const (
	TypePing  MessageType = "ping"
	TypePong  MessageType = "pong"
	TypeError MessageType = "error"

	// Server to client
	TypeNoteChange    MessageType = "note.change"
	TypeSpeechCommand MessageType = "speech.command"

	// Client to server
	TypeSpeechEvent MessageType = "speech.event"
)

type WSMessage struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// MessageHandler processes one inbound frame of a given type from userId.
type MessageHandler interface {
	Handle(ctx context.Context, userId string, data json.RawMessage) error
}

type HandlerFunc func(ctx context.Context, userId string, data json.RawMessage) error

func (f HandlerFunc) Handle(ctx context.Context, userId string, data json.RawMessage) error {
	return f(ctx, userId, data)
}

func encodeMessage(msgType MessageType, data interface{}, at time.Time) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Data: raw, Timestamp: at})
}
