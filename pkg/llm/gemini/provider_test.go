package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"intelliprep-notes-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiProvider_Generate(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hello "},{"text":"world"}]}}]}`))
	}))
	defer srv.Close()

	p := NewGeminiProvider("key-123", srv.URL, "gemini-test")
	out, err := p.Generate(context.Background(), "Say hi", llm.WithMaxTokens(50))
	require.NoError(t, err)

	assert.Equal(t, "Hello world", out)
	assert.Equal(t, "/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "key-123", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "user", gotBody.Contents[0].Role)
	assert.Equal(t, "Say hi", gotBody.Contents[0].Parts[0].Text)
	require.NotNil(t, gotBody.GenerationConfig)
	assert.Equal(t, 50, gotBody.GenerationConfig.MaxOutputTokens)
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	p := NewGeminiProvider("", "http://127.0.0.1:1", "")
	_, err := p.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
}

func TestGeminiProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		target error
	}{
		{"http error", http.StatusTooManyRequests, `{"error":{"message":"quota"}}`, nil},
		{"no candidates", http.StatusOK, `{"candidates":[]}`, llm.ErrEmptyResponse},
		{"malformed", http.StatusOK, `not json`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewGeminiProvider("key", srv.URL, "").Generate(context.Background(), "x")
			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}
