package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/logger"
)

const (
	InterviewTag      = "interview"
	DefaultSourceName = "intelliprep"

	dateLayout     = "1/2/2006"
	dateTimeLayout = "1/2/2006, 3:04:05 PM"
)

const transcriptTemplate = `# Interview Session

**Date:** %s
**Session ID:** %s

## Interview Transcript

%s

---
*This note was automatically generated from an IntelliPrep interview session.*`

// Completion describes a finished interview session handed over by the interview service.
type Completion struct {
	SessionId      string
	Transcript     string
	SuggestedTitle string
}

// NoteCreator is the slice of the note store the importer needs.
type NoteCreator interface {
	Create(ctx context.Context, in notestore.CreateInput) (*entity.Note, error)
}

type Importer struct {
	sourceName string
	now        func() time.Time
	location   *time.Location
	logger     logger.ILogger
}

type Option func(*Importer)

func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// WithLocation sets the zone used when rendering dates into titles and bodies.
func WithLocation(loc *time.Location) Option {
	return func(i *Importer) { i.location = loc }
}

func NewImporter(sourceName string, log logger.ILogger, opts ...Option) *Importer {
	if strings.TrimSpace(sourceName) == "" {
		sourceName = DefaultSourceName
	}
	if log == nil {
		log = logger.NewNop()
	}
	i := &Importer{
		sourceName: sourceName,
		now:        time.Now,
		location:   time.Local,
		logger:     log,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Importer) Tags() []string {
	return []string{InterviewTag, i.sourceName}
}

// Import saves a finished session transcript as an interview-derived note.
func (i *Importer) Import(ctx context.Context, store NoteCreator, c Completion) (*entity.Note, error) {
	sessionId := strings.TrimSpace(c.SessionId)
	if sessionId == "" {
		return nil, apperror.Validation("import_interview", "Interview session id is required.")
	}

	now := i.now().In(i.location)
	title := strings.TrimSpace(c.SuggestedTitle)
	if title == "" {
		title = "Interview Session - " + now.Format(dateLayout)
	}

	return i.save(ctx, store, sessionId, title, i.FormatTranscript(sessionId, c.Transcript, now))
}

// QuickNote saves a short note taken during a live session. Content is stored as given.
func (i *Importer) QuickNote(ctx context.Context, store NoteCreator, sessionId, content, title string) (*entity.Note, error) {
	sessionId = strings.TrimSpace(sessionId)
	if sessionId == "" {
		return nil, apperror.Validation("quick_note", "Interview session id is required.")
	}
	if strings.TrimSpace(title) == "" {
		title = "Quick Note - Interview " + sessionId
	}
	return i.save(ctx, store, sessionId, title, content)
}

func (i *Importer) FormatTranscript(sessionId, transcript string, at time.Time) string {
	body := fmt.Sprintf(transcriptTemplate, at.Format(dateTimeLayout), sessionId, transcript)
	return strings.TrimSpace(body)
}

func (i *Importer) save(ctx context.Context, store NoteCreator, sessionId, title, content string) (*entity.Note, error) {
	note, err := store.Create(ctx, notestore.CreateInput{
		Title:     title,
		Content:   content,
		Tags:      i.Tags(),
		Origin:    entity.OriginInterviewDerived,
		SessionId: &sessionId,
	})
	if err != nil {
		i.logger.Warn("INTERVIEW", "Failed to save interview note", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return nil, err
	}

	i.logger.Info("INTERVIEW", "Interview note saved", map[string]interface{}{
		"session_id": sessionId,
		"note_id":    note.Id,
	})
	return note, nil
}
