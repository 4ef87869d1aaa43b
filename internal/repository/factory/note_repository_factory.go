package factory

import (
	"context"
	"fmt"

	"intelliprep-notes-be/internal/config"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/repository/contract"
	"intelliprep-notes-be/internal/repository/implementation"
	"intelliprep-notes-be/pkg/database"
)

// NoteBackend is the selected remote note store plus the func that releases it.
type NoteBackend struct {
	Name       string
	Repository contract.NoteRepository
	Close      func() error
}

// NewNoteBackend selects Supabase or Firebase from NOTES_BACKEND.
func NewNoteBackend(ctx context.Context, cfg *config.Config, log logger.ILogger) (*NoteBackend, error) {
	switch cfg.Database.NotesBackend {
	case "", config.BackendSupabase:
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			return nil, fmt.Errorf("supabase backend: %w", err)
		}
		return &NoteBackend{
			Name:       config.BackendSupabase,
			Repository: implementation.NewSupabaseNoteRepository(db, log),
			Close: func() error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.Close()
			},
		}, nil

	case config.BackendFirebase:
		client, err := database.NewFirestoreClient(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("firebase backend: %w", err)
		}
		return &NoteBackend{
			Name:       config.BackendFirebase,
			Repository: implementation.NewFirestoreNoteRepository(client),
			Close:      client.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported notes backend: %q", cfg.Database.NotesBackend)
	}
}
