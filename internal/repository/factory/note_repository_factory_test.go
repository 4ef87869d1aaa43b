package factory

import (
	"context"
	"testing"

	"intelliprep-notes-be/internal/config"
	"intelliprep-notes-be/pkg/database"

	"github.com/stretchr/testify/assert"
)

func TestNewNoteBackend_Errors(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.Config
		target error
	}{
		{"supabase without dsn", config.Config{Database: config.DatabaseConfig{NotesBackend: "supabase"}}, database.ErrMissingDSN},
		{"firebase without project", config.Config{Database: config.DatabaseConfig{NotesBackend: "firebase"}}, database.ErrMissingProject},
		{"unknown backend", config.Config{Database: config.DatabaseConfig{NotesBackend: "dynamo"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNoteBackend(context.Background(), &tt.cfg, nil)
			assert.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
