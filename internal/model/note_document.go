package model

import "time"

// Source values stored by the Firebase client.
const (
	SourceManual      = "manual"
	SourceIntelliprep = "intelliprep"
)

// NoteDocument is the shape of a document in the Firestore "notes" collection.
// The document id is the note id and is not stored as a field.
type NoteDocument struct {
	UserId      string    `firestore:"userId"`
	Title       string    `firestore:"title"`
	Content     string    `firestore:"content"`
	Summary     *string   `firestore:"summary,omitempty"`
	Tags        []string  `firestore:"tags"`
	IsFavorite  bool      `firestore:"isFavorite"`
	Source      string    `firestore:"source"`
	InterviewId *string   `firestore:"interviewId,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}
