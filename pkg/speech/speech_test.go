package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"intelliprep-notes-be/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecognizer struct {
	mu        sync.Mutex
	events    chan Event
	script    []Event
	startErr  error
	available *bool

	locales []string
	stops   int
	cancels int
}

func newFakeRecognizer(script ...Event) *fakeRecognizer {
	return &fakeRecognizer{events: make(chan Event, 32), script: script}
}

func (f *fakeRecognizer) Start(_ context.Context, locale string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.locales = append(f.locales, locale)
	for _, ev := range f.script {
		f.events <- ev
	}
	return nil
}

func (f *fakeRecognizer) Stop(context.Context) error {
	f.mu.Lock()
	f.stops++
	f.mu.Unlock()
	return nil
}

func (f *fakeRecognizer) Cancel(context.Context) error {
	f.mu.Lock()
	f.cancels++
	f.mu.Unlock()
	return nil
}

func (f *fakeRecognizer) Events() <-chan Event { return f.events }

func (f *fakeRecognizer) counts() (stops, cancels int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stops, f.cancels
}

type availabilityRecognizer struct {
	*fakeRecognizer
	ok bool
}

func (a availabilityRecognizer) Available(context.Context) (bool, error) { return a.ok, nil }

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"1", "Network error. Speech recognition works offline, please try again."},
		{"network", "Network error. Speech recognition works offline, please try again."},
		{"2", "Audio recording error. Please check microphone permissions."},
		{"3", "Microphone permission denied. Please allow microphone access."},
		{"4", "Speech recognition service is busy. Please try again."},
		{"no_match", "No speech was detected. Please speak clearly and try again."},
		{"6", "Speech recognizer is busy. Please try again."},
		{"7", "Insufficient permissions for speech recognition."},
		{"speech_timeout", "No speech input detected. Please try again."},
		{"9", "Speech recognition not available on this device."},
		{"42", "Speech recognition error: 42"},
		{"", "Unknown speech recognition error"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorMessage(tt.code))
		})
	}
}

func TestTranscribe_Final(t *testing.T) {
	rec := newFakeRecognizer(
		Event{Kind: EventStart},
		Event{Kind: EventVolume, Volume: 3.5},
		Event{Kind: EventPartial, Text: "hello"},
		Event{Kind: EventFinal, Text: "hello world"},
		Event{Kind: EventEnd},
	)
	c := NewCoordinator(rec, nil)

	text, err := Transcribe(context.Background(), c, "")
	require.NoError(t, err)

	assert.Equal(t, "hello world", text)
	assert.Equal(t, []string{DefaultLocale}, rec.locales)
	assert.False(t, c.Active())
}

func TestTranscribe_Error(t *testing.T) {
	rec := newFakeRecognizer(Event{Kind: EventStart}, Event{Kind: EventError, Code: "7"})
	c := NewCoordinator(rec, nil)

	_, err := Transcribe(context.Background(), c, "en-GB")

	assert.ErrorIs(t, err, apperror.ErrSpeech)
	assert.Equal(t, "Insufficient permissions for speech recognition.", apperror.UserMessage(err))
	_, cancels := rec.counts()
	assert.Equal(t, 1, cancels, "recognizer released after error")
}

func TestTranscribe_EndWithoutFinal(t *testing.T) {
	t.Run("uses last partial", func(t *testing.T) {
		rec := newFakeRecognizer(Event{Kind: EventPartial, Text: "almost"}, Event{Kind: EventEnd})
		text, err := Transcribe(context.Background(), NewCoordinator(rec, nil), "")
		require.NoError(t, err)
		assert.Equal(t, "almost", text)
	})

	t.Run("nothing heard", func(t *testing.T) {
		rec := newFakeRecognizer(Event{Kind: EventStart}, Event{Kind: EventEnd})
		_, err := Transcribe(context.Background(), NewCoordinator(rec, nil), "")
		assert.ErrorIs(t, err, apperror.ErrSpeech)
		assert.Equal(t, "No speech was detected. Please speak clearly and try again.", apperror.UserMessage(err))
	})
}

func TestListen_StopsPreviousSession(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCoordinator(rec, nil)
	ctx := context.Background()

	first, err := c.Listen(ctx, "")
	require.NoError(t, err)

	second, err := c.Listen(ctx, "")
	require.NoError(t, err)
	defer second.Close()

	_, open := <-first.Events()
	assert.False(t, open, "previous session is closed")

	stops, cancels := rec.counts()
	assert.Equal(t, 1, stops)
	assert.Equal(t, 1, cancels)
	assert.True(t, c.Active())
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCoordinator(rec, nil)

	s, err := c.Listen(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, cancels := rec.counts()
	assert.Equal(t, 1, cancels)
	assert.False(t, c.Active())
}

func TestSession_CancelReleases(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCoordinator(rec, nil)

	s, err := c.Listen(context.Background(), "")
	require.NoError(t, err)
	require.NoError(t, s.Cancel(context.Background()))
	require.NoError(t, s.Close())

	_, cancels := rec.counts()
	assert.Equal(t, 1, cancels)
	assert.False(t, c.Active())
}

func TestSession_EndsWithContext(t *testing.T) {
	rec := newFakeRecognizer()
	c := NewCoordinator(rec, nil)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := c.Listen(ctx, "")
	require.NoError(t, err)
	cancel()

	select {
	case _, open := <-s.Events():
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("session did not end with its context")
	}

	_, cancels := rec.counts()
	assert.Equal(t, 1, cancels)
	assert.False(t, c.Active())
	require.NoError(t, s.Close())
}

func TestListen_Failures(t *testing.T) {
	t.Run("start error", func(t *testing.T) {
		rec := newFakeRecognizer()
		rec.startErr = errors.New("mic busy")

		_, err := NewCoordinator(rec, nil).Listen(context.Background(), "")
		assert.ErrorIs(t, err, apperror.ErrSpeech)
		assert.Equal(t, "Failed to start speech recognition. Please try again.", apperror.UserMessage(err))
	})

	t.Run("not available", func(t *testing.T) {
		rec := availabilityRecognizer{fakeRecognizer: newFakeRecognizer(), ok: false}

		_, err := NewCoordinator(rec, nil).Listen(context.Background(), "")
		assert.Equal(t, "Speech recognition not available on this device.", apperror.UserMessage(err))
	})
}
