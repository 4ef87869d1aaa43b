package notestore

import (
	"context"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/pkg/enrichment"
)

type EnrichmentKind string

const (
	EnrichmentSummarize EnrichmentKind = "summarize"
	EnrichmentEnhance   EnrichmentKind = "enhance"
)

type EnrichmentStatus struct {
	Kind       EnrichmentKind `json:"kind"`
	InProgress bool           `json:"in_progress"`
}

// ErrorInfo is the last failure, reduced to something a screen can render.
type ErrorInfo struct {
	Kind    apperror.Kind `json:"kind"`
	Op      string        `json:"op,omitempty"`
	Message string        `json:"message"`
	At      time.Time     `json:"at"`
}

// State is a point-in-time copy of the store. Mutating it has no effect on the store.
type State struct {
	Notes             []*entity.Note              `json:"notes"`
	SearchQuery       string                      `json:"search_query"`
	SelectedTags      []string                    `json:"selected_tags"`
	IsLoading         bool                        `json:"is_loading"`
	PerNoteEnrichment map[string]EnrichmentStatus `json:"per_note_enrichment"`
	LastError         *ErrorInfo                  `json:"last_error"`
}

type ChangeKind string

const (
	ChangeCreated    ChangeKind = "created"
	ChangeUpdated    ChangeKind = "updated"
	ChangeDeleted    ChangeKind = "deleted"
	ChangeLoaded     ChangeKind = "loaded"
	ChangeReset      ChangeKind = "reset"
	ChangeEnrichment ChangeKind = "enrichment"
	ChangeError      ChangeKind = "error"
)

// Change describes one confirmed transition of the store.
type Change struct {
	Kind       ChangeKind        `json:"kind"`
	OwnerId    string            `json:"owner_id"`
	NoteId     string            `json:"note_id,omitempty"`
	Note       *entity.Note      `json:"note,omitempty"`
	Enrichment *EnrichmentStatus `json:"enrichment,omitempty"`
	Error      *ErrorInfo        `json:"error,omitempty"`
	At         time.Time         `json:"at"`
}

// EventSink receives every change after subscribers have been notified.
type EventSink interface {
	Emit(ctx context.Context, change Change)
}

type Enricher interface {
	Summarize(ctx context.Context, text string) string
	Enhance(ctx context.Context, text string, mode enrichment.Mode) (string, error)
}

type CreateInput struct {
	Title     string
	Content   string
	Tags      []string
	Origin    entity.Origin
	SessionId *string
}

type SortKey string

const (
	SortByDate  SortKey = "date"
	SortByTitle SortKey = "title"
)
