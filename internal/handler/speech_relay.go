package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/pkg/speech"
)

// SpeechRelay owns one relay recognizer and coordinator per user and routes
// inbound speech frames to them.
type SpeechRelay struct {
	sender FrameSender
	logger logger.ILogger

	mu           sync.Mutex
	recognizers  map[string]*RelayRecognizer
	coordinators map[string]*speech.Coordinator
}

func NewSpeechRelay(sender FrameSender, log logger.ILogger) *SpeechRelay {
	if log == nil {
		log = logger.NewNop()
	}
	return &SpeechRelay{
		sender:       sender,
		logger:       log,
		recognizers:  make(map[string]*RelayRecognizer),
		coordinators: make(map[string]*speech.Coordinator),
	}
}

// Coordinator returns the user's coordinator, creating it on first use.
func (s *SpeechRelay) Coordinator(userId string) *speech.Coordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.coordinators[userId]; ok {
		return c
	}
	rec := NewRelayRecognizer(userId, s.sender, s.logger)
	c := speech.NewCoordinator(rec, s.logger)
	s.recognizers[userId] = rec
	s.coordinators[userId] = c
	return c
}

// Forget drops the user's relay, e.g. after sign-out. A running session is cancelled.
func (s *SpeechRelay) Forget(ctx context.Context, userId string) {
	s.mu.Lock()
	rec := s.recognizers[userId]
	delete(s.recognizers, userId)
	delete(s.coordinators, userId)
	s.mu.Unlock()

	if rec != nil {
		_ = rec.Cancel(ctx)
	}
}

// Handle implements websocket.MessageHandler for speech.event frames.
func (s *SpeechRelay) Handle(_ context.Context, userId string, data json.RawMessage) error {
	var frame SpeechFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return fmt.Errorf("invalid speech frame: %w", err)
	}

	s.mu.Lock()
	rec := s.recognizers[userId]
	s.mu.Unlock()

	if rec == nil || !rec.Deliver(frame) {
		s.logger.Debug("SpeechRelay", "Dropped stale speech frame", map[string]interface{}{
			"user_id":    userId,
			"session_id": frame.SessionId,
			"kind":       frame.Kind,
		})
	}
	return nil
}
