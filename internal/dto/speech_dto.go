package dto

import "intelliprep-notes-be/internal/entity"

type DictateRequest struct {
	Locale         string   `json:"locale" validate:"max=16"`
	TimeoutSeconds int      `json:"timeout_seconds" validate:"omitempty,min=1,max=120"`
	SaveAsNote     bool     `json:"save_as_note"`
	NoteId         string   `json:"note_id"` // append the transcript to this note instead
	Title          string   `json:"title" validate:"max=255"`
	Tags           []string `json:"tags"`
}

type DictateResponse struct {
	Text string       `json:"text"`
	Note *entity.Note `json:"note,omitempty"`
}
