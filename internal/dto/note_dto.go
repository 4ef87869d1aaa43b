package dto

import (
	"encoding/json"

	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/notestore"
)

type ListNotesQuery struct {
	Q       string `query:"q"`
	Tags    string `query:"tags"` // comma separated
	Sort    string `query:"sort" validate:"omitempty,oneof=date title"`
	Refresh bool   `query:"refresh"`
}

type ListNotesResponse struct {
	Notes []*entity.Note `json:"notes"`
	Total int            `json:"total"`
}

type CreateNoteRequest struct {
	Title   string   `json:"title" validate:"required,max=255"`
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
}

// UpdateNoteRequest only touches the fields that are present.
// Id, OwnerId and CreatedAt exist only to detect attempts to change them.
type UpdateNoteRequest struct {
	Title      *string  `json:"title" validate:"omitempty,max=255"`
	Content    *string  `json:"content"`
	Summary    *string  `json:"summary"`
	Tags       []string `json:"tags"`
	IsFavorite *bool    `json:"is_favorite"`

	Id        *json.RawMessage `json:"id"`
	OwnerId   *json.RawMessage `json:"owner_id"`
	CreatedAt *json.RawMessage `json:"created_at"`
}

// ImmutableField names the first read-only field present in the payload, or "".
func (r UpdateNoteRequest) ImmutableField() string {
	switch {
	case r.Id != nil:
		return "id"
	case r.OwnerId != nil:
		return "owner_id"
	case r.CreatedAt != nil:
		return "created_at"
	}
	return ""
}

func (r UpdateNoteRequest) ToPatch() entity.NotePatch {
	return entity.NotePatch{
		Title:      r.Title,
		Content:    r.Content,
		Summary:    r.Summary,
		Tags:       r.Tags,
		IsFavorite: r.IsFavorite,
	}
}

type EnhanceNoteRequest struct {
	Mode string `json:"mode" validate:"required,oneof=grammar expand simplify"`
}

type DeleteNoteResponse struct {
	Id string `json:"id"`
}

type StateResponse struct {
	IsLoading         bool                                  `json:"is_loading"`
	SearchQuery       string                                `json:"search_query"`
	SelectedTags      []string                              `json:"selected_tags"`
	NoteCount         int                                   `json:"note_count"`
	PerNoteEnrichment map[string]notestore.EnrichmentStatus `json:"per_note_enrichment"`
	LastError         *notestore.ErrorInfo                  `json:"last_error"`
}

func NewStateResponse(s notestore.State) StateResponse {
	return StateResponse{
		IsLoading:         s.IsLoading,
		SearchQuery:       s.SearchQuery,
		SelectedTags:      s.SelectedTags,
		NoteCount:         len(s.Notes),
		PerNoteEnrichment: s.PerNoteEnrichment,
		LastError:         s.LastError,
	}
}

type TagsResponse struct {
	Tags []string `json:"tags"`
}
