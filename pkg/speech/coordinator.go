package speech

import (
	"context"
	"fmt"
	"sync"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/pkg/logger"
)

const module = "SPEECH"

// Coordinator guards the single device recognizer: starting a new session
// stops and releases the previous one first.
type Coordinator struct {
	rec    Recognizer
	logger logger.ILogger

	listenMu sync.Mutex // serializes Listen
	mu       sync.Mutex
	active   *Session
}

func NewCoordinator(rec Recognizer, log logger.ILogger) *Coordinator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Coordinator{rec: rec, logger: log}
}

// Listen starts a recognition session. The caller must Close it; the session
// also ends when ctx is cancelled.
func (c *Coordinator) Listen(ctx context.Context, locale string) (*Session, error) {
	c.listenMu.Lock()
	defer c.listenMu.Unlock()

	if prev := c.current(); prev != nil {
		_ = prev.Stop(ctx)
		_ = prev.Close()
	}

	if checker, ok := c.rec.(AvailabilityChecker); ok {
		available, err := checker.Available(ctx)
		if err != nil || !available {
			return nil, &apperror.Error{Kind: apperror.KindSpeech, Op: "listen", Message: msgNotAvailable, Err: err}
		}
	}

	if locale == "" {
		locale = DefaultLocale
	}

	sctx, cancel := context.WithCancel(ctx)
	if err := c.rec.Start(sctx, locale); err != nil {
		cancel()
		c.logger.Error(module, "Failed to start speech recognition", map[string]interface{}{"locale": locale, "error": err})
		return nil, &apperror.Error{Kind: apperror.KindSpeech, Op: "listen", Message: msgStartFailed, Err: err}
	}

	s := &Session{
		coord:  c,
		events: make(chan Event, 16),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	c.mu.Lock()
	c.active = s
	c.mu.Unlock()

	go s.pump(sctx)
	c.logger.Info(module, "Speech recognition started", map[string]interface{}{"locale": locale})
	return s, nil
}

// Active reports whether a session currently holds the recognizer.
func (c *Coordinator) Active() bool {
	return c.current() != nil
}

func (c *Coordinator) current() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *Coordinator) release(s *Session) {
	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()
}

// Session is one recognition run. Events is closed when the recognizer reports
// end, when the session context is cancelled, or on Close.
type Session struct {
	coord  *Coordinator
	events chan Event
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	ended     bool
	closeOnce sync.Once
}

func (s *Session) Events() <-chan Event {
	return s.events
}

// Stop asks the recognizer to finish; pending results are still delivered.
func (s *Session) Stop(ctx context.Context) error {
	if s.isEnded() {
		return nil
	}
	if err := s.coord.rec.Stop(ctx); err != nil {
		return fmt.Errorf("stop recognizer: %w", err)
	}
	return nil
}

// Cancel aborts recognition immediately and releases the recognizer.
func (s *Session) Cancel(ctx context.Context) error {
	var err error
	if !s.isEnded() {
		err = s.coord.rec.Cancel(ctx)
	}
	s.markEnded()
	_ = s.Close()
	if err != nil {
		return fmt.Errorf("cancel recognizer: %w", err)
	}
	return nil
}

// Close releases the recognizer. It is safe to call more than once and from defer.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()
		<-s.done
		s.coord.release(s)
	})
	return nil
}

func (s *Session) pump(ctx context.Context) {
	defer close(s.done)
	defer close(s.events)
	defer func() {
		// Abnormal exits must not leave the device recording.
		if !s.isEnded() {
			if err := s.coord.rec.Cancel(context.Background()); err != nil {
				s.coord.logger.Warn(module, "Failed to cancel recognizer", map[string]interface{}{"error": err.Error()})
			}
			s.markEnded()
		}
		s.coord.release(s)
	}()

	source := s.coord.rec.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-source:
			if !ok {
				s.markEnded()
				return
			}
			if ev.Kind == EventError && ev.Err == nil {
				ev = ErrorEvent(ev.Code)
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Kind == EventEnd {
				s.markEnded()
				return
			}
		}
	}
}

func (s *Session) isEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

func (s *Session) markEnded() {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}
