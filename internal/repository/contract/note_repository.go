package contract

import (
	"context"

	"intelliprep-notes-be/internal/entity"
)

// NoteRepository is the remote note backend. Every call is scoped to the owner.
// Consistency across devices is whatever the backend provides (last write wins).
type NoteRepository interface {
	List(ctx context.Context, ownerId string) ([]*entity.Note, error)
	Insert(ctx context.Context, note *entity.Note) (*entity.Note, error)
	Update(ctx context.Context, ownerId, id string, patch entity.NotePatch) (*entity.Note, error)
	Delete(ctx context.Context, ownerId, id string) error
}
