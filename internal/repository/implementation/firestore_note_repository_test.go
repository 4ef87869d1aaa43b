package implementation

import (
	"context"
	"os"
	"testing"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs against the Firestore emulator only.
func TestFirestoreNoteRepository_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("Skipping integration test: FIRESTORE_EMULATOR_HOST not set")
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, "intelliprep-test")
	require.NoError(t, err)
	defer client.Close()

	repo := NewFirestoreNoteRepository(client)
	owner := "user-" + uuid.NewString()
	session := "sess-1"

	created, err := repo.Insert(ctx, &entity.Note{
		OwnerId:   owner,
		Title:     "From interview",
		Content:   "transcript",
		Tags:      []string{"interview", "intelliprep"},
		Origin:    entity.OriginInterviewDerived,
		SessionId: &session,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.Id)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	title := "Renamed"
	updated, err := repo.Update(ctx, owner, created.Id, entity.NotePatch{Title: &title, UpdatedAt: created.UpdatedAt.Add(1000)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, entity.OriginInterviewDerived, updated.Origin)

	_, err = repo.Update(ctx, "someone-else", created.Id, entity.NotePatch{Title: &title})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	notes, err := repo.List(ctx, owner)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	require.NoError(t, repo.Delete(ctx, owner, created.Id))
	assert.ErrorIs(t, repo.Delete(ctx, owner, created.Id), apperror.ErrNotFound)
}
