package implementation

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var noteColumns = []string{
	"id", "user_id", "title", "content", "summary", "tags",
	"is_favorite", "is_from_interview", "interview_id", "created_at", "updated_at",
}

func newMockRepo(t *testing.T) (*SupabaseNoteRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewSupabaseNoteRepository(db, nil), mock
}

func TestSupabaseNoteRepository_List(t *testing.T) {
	repo, mock := newMockRepo(t)
	ts := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	session := "sess-1"

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes" WHERE notes.user_id = $1 ORDER BY updated_at DESC,id ASC`)).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n2", "user-1", "Second", "body", nil, []byte(`["go","db"]`), true, false, nil, ts, ts.Add(time.Hour)).
			AddRow("n1", "user-1", "First", "body", "short", []byte(`["interview"]`), false, true, session, ts, ts))

	notes, err := repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, notes, 2)

	assert.Equal(t, "n2", notes[0].Id)
	assert.Equal(t, []string{"go", "db"}, notes[0].Tags)
	assert.True(t, notes[0].IsFavorite)
	assert.Nil(t, notes[0].Summary)
	assert.Equal(t, entity.OriginManual, notes[0].Origin)

	assert.Equal(t, entity.OriginInterviewDerived, notes[1].Origin)
	require.NotNil(t, notes[1].SessionId)
	assert.Equal(t, session, *notes[1].SessionId)
	require.NotNil(t, notes[1].Summary)
	assert.Equal(t, "short", *notes[1].Summary)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupabaseNoteRepository_ListClassifiesErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
	}{
		{"permission denied", &pgconn.PgError{Code: "42501"}, &apperror.Error{Kind: apperror.KindRemote, Reason: apperror.ReasonPermissionDenied}},
		{"quota exceeded", &pgconn.PgError{Code: "53400"}, &apperror.Error{Kind: apperror.KindRemote, Reason: apperror.ReasonQuotaExceeded}},
		{"network", errors.New("connection reset by peer"), apperror.ErrRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectQuery(`SELECT \* FROM "notes"`).WillReturnError(tt.err)

			_, err := repo.List(context.Background(), "user-1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
			assert.NotContains(t, apperror.UserMessage(err), "connection reset")
		})
	}
}

func TestSupabaseNoteRepository_Insert(t *testing.T) {
	repo, mock := newMockRepo(t)
	fixed := time.Date(2025, 3, 1, 10, 0, 0, 123456789, time.UTC)
	repo.now = func() time.Time { return fixed }

	mock.ExpectExec(`INSERT INTO "notes"`).WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Insert(context.Background(), &entity.Note{
		OwnerId: "user-1",
		Title:   "Title",
		Content: "Content",
		Tags:    []string{"general"},
		Origin:  entity.OriginManual,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.Id)
	assert.Equal(t, "user-1", created.OwnerId)
	assert.Equal(t, []string{"general"}, created.Tags)
	assert.Equal(t, fixed.Truncate(time.Microsecond), created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupabaseNoteRepository_Update(t *testing.T) {
	repo, mock := newMockRepo(t)
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Minute)
	title := "Renamed"

	mock.ExpectExec(`UPDATE "notes" SET .* WHERE id = \$\d+ AND notes\.user_id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "notes" WHERE id = \$1 AND notes\.user_id = \$2`).
		WillReturnRows(sqlmock.NewRows(noteColumns).
			AddRow("n1", "user-1", title, "body", nil, []byte(`["general"]`), false, false, nil, created, updated))

	note, err := repo.Update(context.Background(), "user-1", "n1", entity.NotePatch{Title: &title, UpdatedAt: updated})
	require.NoError(t, err)
	assert.Equal(t, title, note.Title)
	assert.Equal(t, "body", note.Content)
	assert.Equal(t, updated, note.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupabaseNoteRepository_UpdateMissingRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	title := "Renamed"

	mock.ExpectExec(`UPDATE "notes" SET`).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Update(context.Background(), "user-1", "missing", entity.NotePatch{Title: &title, UpdatedAt: time.Now()})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSupabaseNoteRepository_Delete(t *testing.T) {
	t.Run("deletes owned row", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "notes" WHERE id = $1 AND notes.user_id = $2`)).
			WithArgs("n1", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(context.Background(), "user-1", "n1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM "notes"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), "user-1", "n1")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("backend failure is remote", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`DELETE FROM "notes"`).WillReturnError(errors.New("timeout"))

		err := repo.Delete(context.Background(), "user-1", "n1")
		assert.ErrorIs(t, err, apperror.ErrRemote)
	})
}
