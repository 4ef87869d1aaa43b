package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTES_BACKEND", "")
	t.Setenv("STORE_IDLE_TTL_MINUTES", "not-a-number")
	t.Setenv("OTEL_ENABLED", "")

	cfg := Load()

	assert.Equal(t, "", cfg.Database.NotesBackend)
	assert.Equal(t, 60*time.Minute, cfg.Store.IdleTTL)
	assert.False(t, cfg.App.OtelEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("NOTES_BACKEND", "Firebase")
	t.Setenv("STORE_IDLE_TTL_MINUTES", "5")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("INTERVIEW_SOURCE_NAME", "mockprep")
	t.Setenv("SPEECH_LOCALE", "en-GB")

	cfg := Load()

	assert.Equal(t, BackendFirebase, cfg.Database.NotesBackend)
	assert.Equal(t, 5*time.Minute, cfg.Store.IdleTTL)
	assert.True(t, cfg.App.OtelEnabled)
	assert.Equal(t, "mockprep", cfg.Interview.SourceName)
	assert.Equal(t, "en-GB", cfg.Speech.Locale)
}
