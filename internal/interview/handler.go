package interview

import (
	"context"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/pkg/events"
)

// DurableName is the JetStream consumer that feeds completed sessions into notes.
const DurableName = "notes-interview-importer"

// Payload keys of an INTERVIEW_SESSION_COMPLETED event.
const (
	KeyUserId     = "user_id"
	KeySessionId  = "session_id"
	KeyTranscript = "transcript"
	KeyTitle      = "title"
)

// StoreResolver hands out the loaded store of a user.
type StoreResolver interface {
	Acquire(ctx context.Context, userId string) (*notestore.Store, error)
}

// SessionChecker reports whether a user has a live session on this instance.
type SessionChecker interface {
	IsSignedIn(userId string) bool
}

// OfflineStoreFactory builds a short-lived writer acting for a user who is not
// signed in. Nothing it creates is cached.
type OfflineStoreFactory func(userId string) NoteCreator

// CompletionHandler turns completed-session events into notes. Signed-in users
// get the note through their live store; everyone else through an offline
// writer, so the note is in the backend when they next load. Events that can
// never succeed are acknowledged and logged; anything else is returned for redelivery.
type CompletionHandler struct {
	importer *Importer
	stores   StoreResolver
	sessions SessionChecker
	offline  OfflineStoreFactory
	logger   logger.ILogger
}

// NewCompletionHandler with a nil sessions treats every user as signed in.
// With sessions set and offline nil, events for signed-out users are acked and logged.
func NewCompletionHandler(importer *Importer, stores StoreResolver, sessions SessionChecker, offline OfflineStoreFactory, log logger.ILogger) *CompletionHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &CompletionHandler{importer: importer, stores: stores, sessions: sessions, offline: offline, logger: log}
}

func (h *CompletionHandler) Handle(ctx context.Context, event events.Event) error {
	userId := events.String(event, KeyUserId)
	if userId == "" {
		h.logger.Warn("INTERVIEW", "Dropping event without user", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}

	store, err := h.target(ctx, userId)
	if err != nil {
		return h.classify(userId, err)
	}
	if store == nil {
		h.logger.Warn("INTERVIEW", "Dropping event for signed-out user", map[string]interface{}{
			"user_id": userId,
		})
		return nil
	}

	_, err = h.importer.Import(ctx, store, Completion{
		SessionId:      events.String(event, KeySessionId),
		Transcript:     events.String(event, KeyTranscript),
		SuggestedTitle: events.String(event, KeyTitle),
	})
	if err != nil {
		return h.classify(userId, err)
	}
	return nil
}

// target returns nil, nil when the user is signed out and no offline writer is set.
func (h *CompletionHandler) target(ctx context.Context, userId string) (NoteCreator, error) {
	if h.sessions == nil || h.sessions.IsSignedIn(userId) {
		store, err := h.stores.Acquire(ctx, userId)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	if h.offline == nil {
		return nil, nil
	}
	return h.offline(userId), nil
}

func (h *CompletionHandler) classify(userId string, err error) error {
	if apperror.KindOf(err) == apperror.KindValidation {
		h.logger.Warn("INTERVIEW", "Dropping invalid interview event", map[string]interface{}{
			"user_id": userId,
			"error":   err.Error(),
		})
		return nil
	}
	return err
}
