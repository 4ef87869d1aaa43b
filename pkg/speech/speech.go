package speech

import (
	"context"

	"intelliprep-notes-be/internal/apperror"
)

const DefaultLocale = "en-US"

type EventKind string

const (
	EventStart   EventKind = "start"
	EventPartial EventKind = "partial"
	EventFinal   EventKind = "final"
	EventError   EventKind = "error"
	EventVolume  EventKind = "volume"
	EventEnd     EventKind = "end"
)

type Event struct {
	Kind   EventKind `json:"kind"`
	Text   string    `json:"text,omitempty"`
	Volume float64   `json:"volume,omitempty"`
	Code   string    `json:"code,omitempty"`
	Err    error     `json:"-"`
}

// ErrorEvent builds an error event carrying the user-facing message for code.
func ErrorEvent(code string) Event {
	return Event{Kind: EventError, Code: code, Err: apperror.Speech(ErrorMessage(code))}
}

// Recognizer is the device speech service. Only one recognition runs at a time.
// Events emitted after Stop or Cancel and before the next Start are dropped by
// the implementation.
type Recognizer interface {
	Start(ctx context.Context, locale string) error
	Stop(ctx context.Context) error
	Cancel(ctx context.Context) error
	Events() <-chan Event
}

// AvailabilityChecker is implemented by recognizers that can tell up front
// whether the device supports recognition.
type AvailabilityChecker interface {
	Available(ctx context.Context) (bool, error)
}

const (
	msgUnknown      = "Unknown speech recognition error"
	msgNotAvailable = "Speech recognition not available on this device."
	msgStartFailed  = "Failed to start speech recognition. Please try again."
)

var errorMessages = map[string]string{
	"network":                  "Network error. Speech recognition works offline, please try again.",
	"audio":                    "Audio recording error. Please check microphone permissions.",
	"permission":               "Microphone permission denied. Please allow microphone access.",
	"busy":                     "Speech recognition service is busy. Please try again.",
	"no_match":                 "No speech was detected. Please speak clearly and try again.",
	"recognizer_busy":          "Speech recognizer is busy. Please try again.",
	"insufficient_permissions": "Insufficient permissions for speech recognition.",
	"speech_timeout":           "No speech input detected. Please try again.",
	"not_available":            msgNotAvailable,
}

// Platform numeric codes share the table with their names.
var codeNames = map[string]string{
	"1": "network",
	"2": "audio",
	"3": "permission",
	"4": "busy",
	"5": "no_match",
	"6": "recognizer_busy",
	"7": "insufficient_permissions",
	"8": "speech_timeout",
	"9": "not_available",
}

// ErrorMessage maps a recognizer error code or name to a user-facing message.
func ErrorMessage(code string) string {
	if code == "" {
		return msgUnknown
	}
	name := code
	if n, ok := codeNames[code]; ok {
		name = n
	}
	if msg, ok := errorMessages[name]; ok {
		return msg
	}
	return "Speech recognition error: " + code
}
