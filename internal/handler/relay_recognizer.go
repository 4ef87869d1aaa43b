package handler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/websocket"
	"intelliprep-notes-be/pkg/speech"

	"github.com/google/uuid"
)

var ErrDeviceOffline = errors.New("no device connected")

// FrameSender is the part of the websocket hub the relay talks through.
type FrameSender interface {
	SendToUser(ctx context.Context, userId string, msgType websocket.MessageType, data interface{}) error
	IsOnline(userId string) bool
}

const (
	actionStart  = "start"
	actionStop   = "stop"
	actionCancel = "cancel"
)

// SpeechCommand is sent to the device to drive its recognizer.
type SpeechCommand struct {
	Action    string `json:"action"`
	SessionId string `json:"session_id"`
	Locale    string `json:"locale,omitempty"`
}

// SpeechFrame is a recognizer callback reported by the device.
type SpeechFrame struct {
	SessionId string           `json:"session_id"`
	Kind      speech.EventKind `json:"kind"`
	Text      string           `json:"text,omitempty"`
	Volume    float64          `json:"volume,omitempty"`
	Code      string           `json:"code,omitempty"`
}

// RelayRecognizer drives the recognizer on a user's connected device. Each Start
// opens a new relay session; frames tagged with any other session are dropped,
// and so is everything after Cancel.
type RelayRecognizer struct {
	userId string
	sender FrameSender
	logger logger.ILogger

	mu        sync.Mutex
	sessionId string
	events    chan speech.Event
}

func NewRelayRecognizer(userId string, sender FrameSender, log logger.ILogger) *RelayRecognizer {
	if log == nil {
		log = logger.NewNop()
	}
	return &RelayRecognizer{
		userId: userId,
		sender: sender,
		logger: log,
		events: make(chan speech.Event, 32),
	}
}

func (r *RelayRecognizer) Available(context.Context) (bool, error) {
	return r.sender.IsOnline(r.userId), nil
}

func (r *RelayRecognizer) Start(ctx context.Context, locale string) error {
	if !r.sender.IsOnline(r.userId) {
		return ErrDeviceOffline
	}

	id := uuid.NewString()
	r.mu.Lock()
	r.sessionId = id
	r.drain()
	r.mu.Unlock()

	if err := r.send(ctx, SpeechCommand{Action: actionStart, SessionId: id, Locale: locale}); err != nil {
		r.mu.Lock()
		if r.sessionId == id {
			r.sessionId = ""
		}
		r.mu.Unlock()
		return err
	}
	return nil
}

// Stop lets the device flush its last results; they are still delivered.
func (r *RelayRecognizer) Stop(ctx context.Context) error {
	id := r.current()
	if id == "" {
		return nil
	}
	return r.send(ctx, SpeechCommand{Action: actionStop, SessionId: id})
}

func (r *RelayRecognizer) Cancel(ctx context.Context) error {
	r.mu.Lock()
	id := r.sessionId
	r.sessionId = ""
	r.mu.Unlock()
	if id == "" {
		return nil
	}
	return r.send(ctx, SpeechCommand{Action: actionCancel, SessionId: id})
}

func (r *RelayRecognizer) Events() <-chan speech.Event {
	return r.events
}

// Deliver feeds one device frame into the current session. It reports false
// when the frame was dropped as stale, or as a volume/partial frame on a full buffer.
func (r *RelayRecognizer) Deliver(frame SpeechFrame) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sessionId == "" || frame.SessionId != r.sessionId {
		return false
	}

	ev := speech.Event{Kind: frame.Kind, Text: frame.Text, Volume: frame.Volume, Code: frame.Code}
	if ev.Kind == speech.EventError {
		ev = speech.ErrorEvent(frame.Code)
	}
	if ev.Kind == speech.EventEnd || ev.Kind == speech.EventError {
		r.sessionId = ""
	}

	select {
	case r.events <- ev:
		return true
	default:
	}

	if lossy(ev.Kind) {
		r.logger.Warn("SpeechRelay", "Event buffer full, dropping frame", map[string]interface{}{
			"user_id": r.userId,
			"kind":    frame.Kind,
		})
		return false
	}

	// Results and terminal frames make room by evicting the oldest buffered frame.
	// Only the consumer reads concurrently, so this loop always finishes.
	for {
		select {
		case r.events <- ev:
			return true
		default:
		}
		select {
		case old := <-r.events:
			r.logger.Debug("SpeechRelay", "Event buffer full, evicted frame", map[string]interface{}{
				"user_id": r.userId,
				"kind":    old.Kind,
			})
		default:
		}
	}
}

// lossy frames can be dropped without changing the transcript.
func lossy(kind speech.EventKind) bool {
	return kind == speech.EventVolume || kind == speech.EventPartial
}

func (r *RelayRecognizer) current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionId
}

// drain discards leftovers of an earlier session. Caller holds r.mu.
func (r *RelayRecognizer) drain() {
	for {
		select {
		case <-r.events:
		default:
			return
		}
	}
}

func (r *RelayRecognizer) send(ctx context.Context, cmd SpeechCommand) error {
	if err := r.sender.SendToUser(ctx, r.userId, websocket.TypeSpeechCommand, cmd); err != nil {
		return fmt.Errorf("send %s command: %w", cmd.Action, err)
	}
	return nil
}
