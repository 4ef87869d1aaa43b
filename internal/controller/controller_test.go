package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/interview"
	"intelliprep-notes-be/internal/notestore"
	"intelliprep-notes-be/internal/pkg/serverutils"
	"intelliprep-notes-be/internal/repository/memory"
	"intelliprep-notes-be/pkg/enrichment"
	"intelliprep-notes-be/pkg/speech"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtSecret = []byte("controller-test")

type memRepo struct {
	mu   sync.Mutex
	seq  int
	rows map[string]*entity.Note
	now  time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*entity.Note), now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memRepo) List(_ context.Context, ownerId string) ([]*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Note
	for _, n := range r.rows {
		if n.OwnerId == ownerId {
			out = append(out, n.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	return out, nil
}

func (r *memRepo) Insert(_ context.Context, note *entity.Note) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.now = r.now.Add(time.Second)
	n := note.Clone()
	n.Id = fmt.Sprintf("note-%d", r.seq)
	n.CreatedAt, n.UpdatedAt = r.now, r.now
	r.rows[n.Id] = n
	return n.Clone(), nil
}

func (r *memRepo) Update(_ context.Context, ownerId, id string, patch entity.NotePatch) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.rows[id]
	if !ok || n.OwnerId != ownerId {
		return nil, apperror.NotFound("update", id)
	}
	patch.Apply(n)
	return n.Clone(), nil
}

func (r *memRepo) Delete(_ context.Context, ownerId, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.rows[id]; !ok || n.OwnerId != ownerId {
		return apperror.NotFound("delete", id)
	}
	delete(r.rows, id)
	return nil
}

type stubEnricher struct{}

func (stubEnricher) Summarize(context.Context, string) string { return "A short summary." }

func (stubEnricher) Enhance(_ context.Context, text string, mode enrichment.Mode) (string, error) {
	return fmt.Sprintf("[%s] %s", mode, text), nil
}

type stubQuestions struct{}

func (stubQuestions) GenerateQuestions(_ context.Context, category, _ string) []string {
	return enrichment.FallbackQuestions(category)
}

type scriptedRecognizer struct {
	events chan speech.Event
	script []speech.Event
}

func (s *scriptedRecognizer) Start(context.Context, string) error {
	for _, ev := range s.script {
		s.events <- ev
	}
	return nil
}
func (s *scriptedRecognizer) Stop(context.Context) error   { return nil }
func (s *scriptedRecognizer) Cancel(context.Context) error { return nil }
func (s *scriptedRecognizer) Events() <-chan speech.Event  { return s.events }

type coordinators map[string]*speech.Coordinator

func (c coordinators) Coordinator(userId string) *speech.Coordinator { return c[userId] }

type testApp struct {
	app      *fiber.App
	repo     *memRepo
	manager  *auth.Manager
	registry *memory.StoreRegistry
	speech   coordinators
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	repo := newMemRepo()
	manager := auth.NewManager()
	registry := memory.NewStoreRegistry(time.Hour, func(userId string) *notestore.Store {
		return notestore.New(repo, manager.Session(userId), stubEnricher{})
	})
	t.Cleanup(manager.Subscribe(registry.OnAuthEvent))

	authMw := serverutils.JwtMiddleware(jwtSecret, manager)
	voice := coordinators{}

	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	api := app.Group("/api")
	NewNoteController(registry, authMw).RegisterRoutes(api)
	NewAIController(stubQuestions{}, authMw).RegisterRoutes(api)
	NewInterviewController(interview.NewImporter("", nil), registry, authMw).RegisterRoutes(api)
	NewSessionController(manager, authMw).RegisterRoutes(api)
	NewSpeechController(voice, registry, "", authMw).RegisterRoutes(api)

	return &testApp{app: app, repo: repo, manager: manager, registry: registry, speech: voice}
}

func (a *testApp) do(t *testing.T, method, path, userId string, body interface{}) (int, serverutils.Response[json.RawMessage]) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userId != "" {
		token, err := auth.GenerateToken(userId, jwtSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.app.Test(req, 5000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out serverutils.Response[json.RawMessage]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func decodeData[T any](t *testing.T, r serverutils.Response[json.RawMessage]) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.Data, &v))
	return v
}

func (a *testApp) createNote(t *testing.T, userId, title, content string, tags ...string) entity.Note {
	t.Helper()
	status, res := a.do(t, http.MethodPost, "/api/note/v1", userId, map[string]interface{}{
		"title": title, "content": content, "tags": tags,
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	return decodeData[entity.Note](t, res)
}

func TestNotes_RequireToken(t *testing.T) {
	a := newTestApp(t)
	status, res := a.do(t, http.MethodGet, "/api/note/v1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, res.Success)
}

func TestNotes_CreateListFilterSort(t *testing.T) {
	a := newTestApp(t)
	a.createNote(t, "u1", "beta", "graph theory", "math")
	a.createNote(t, "u1", "Alpha", "closures in JS", "js")
	a.createNote(t, "u2", "other user", "graph")

	status, res := a.do(t, http.MethodGet, "/api/note/v1", "u1", nil)
	require.Equal(t, http.StatusOK, status)
	list := decodeData[struct {
		Notes []entity.Note `json:"notes"`
		Total int           `json:"total"`
	}](t, res)
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "Alpha", list.Notes[0].Title, "newest first")

	_, res = a.do(t, http.MethodGet, "/api/note/v1?sort=title", "u1", nil)
	list = decodeData[struct {
		Notes []entity.Note `json:"notes"`
		Total int           `json:"total"`
	}](t, res)
	assert.Equal(t, "Alpha", list.Notes[0].Title)
	assert.Equal(t, "beta", list.Notes[1].Title)

	_, res = a.do(t, http.MethodGet, "/api/note/v1?q=GRAPH&tags=math,js", "u1", nil)
	list = decodeData[struct {
		Notes []entity.Note `json:"notes"`
		Total int           `json:"total"`
	}](t, res)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "beta", list.Notes[0].Title)

	status, _ = a.do(t, http.MethodGet, "/api/note/v1?sort=size", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNotes_CreateValidation(t *testing.T) {
	a := newTestApp(t)
	status, res := a.do(t, http.MethodPost, "/api/note/v1", "u1", map[string]interface{}{"title": "", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "title is required", res.Message)

	status, _ = a.do(t, http.MethodPost, "/api/note/v1", "u1", map[string]interface{}{"title": "  ", "content": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Empty(t, a.repo.rows)
}

func TestNotes_UpdateFavoriteDelete(t *testing.T) {
	a := newTestApp(t)
	n := a.createNote(t, "u1", "t", "c")
	assert.Equal(t, []string{entity.DefaultTag}, n.Tags)

	status, res := a.do(t, http.MethodPut, "/api/note/v1/"+n.Id, "u1", map[string]interface{}{"title": "renamed"})
	require.Equal(t, http.StatusOK, status, res.Message)
	updated := decodeData[entity.Note](t, res)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, "c", updated.Content)

	status, _ = a.do(t, http.MethodPut, "/api/note/v1/"+n.Id, "u1", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, status)

	_, res = a.do(t, http.MethodPost, "/api/note/v1/"+n.Id+"/favorite", "u1", nil)
	assert.True(t, decodeData[entity.Note](t, res).IsFavorite)
	_, res = a.do(t, http.MethodPost, "/api/note/v1/"+n.Id+"/favorite", "u1", nil)
	assert.False(t, decodeData[entity.Note](t, res).IsFavorite)

	status, _ = a.do(t, http.MethodDelete, "/api/note/v1/"+n.Id, "u1", nil)
	assert.Equal(t, http.StatusOK, status)
	status, res = a.do(t, http.MethodDelete, "/api/note/v1/"+n.Id, "u1", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, fmt.Sprintf("Note %s was not found.", n.Id), res.Message)
}

func TestNotes_UpdateRejectsReadOnlyFields(t *testing.T) {
	a := newTestApp(t)
	n := a.createNote(t, "u1", "t", "c")

	tests := []struct {
		name string
		body map[string]interface{}
		msg  string
	}{
		{"owner", map[string]interface{}{"title": "x", "owner_id": "u2"}, "owner_id cannot be changed"},
		{"id", map[string]interface{}{"title": "x", "id": "other"}, "id cannot be changed"},
		{"created at", map[string]interface{}{"title": "x", "created_at": "2001-01-01T00:00:00Z"}, "created_at cannot be changed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, res := a.do(t, http.MethodPut, "/api/note/v1/"+n.Id, "u1", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, tt.msg, res.Message)
		})
	}

	stored := a.repo.rows[n.Id]
	assert.Equal(t, "t", stored.Title)
	assert.Equal(t, "u1", stored.OwnerId)
}

func TestNotes_OtherUsersNoteIsNotFound(t *testing.T) {
	a := newTestApp(t)
	n := a.createNote(t, "u1", "t", "c")

	status, _ := a.do(t, http.MethodPut, "/api/note/v1/"+n.Id, "u2", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusNotFound, status)
}

func TestNotes_Enrichment(t *testing.T) {
	a := newTestApp(t)
	n := a.createNote(t, "u1", "t", "some text")

	_, res := a.do(t, http.MethodPost, "/api/note/v1/"+n.Id+"/summarize", "u1", nil)
	summarized := decodeData[entity.Note](t, res)
	require.NotNil(t, summarized.Summary)
	assert.Equal(t, "A short summary.", *summarized.Summary)

	status, res := a.do(t, http.MethodPost, "/api/note/v1/"+n.Id+"/enhance", "u1", map[string]string{"mode": "expand"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "[expand] some text", decodeData[entity.Note](t, res).Content)

	status, _ = a.do(t, http.MethodPost, "/api/note/v1/"+n.Id+"/enhance", "u1", map[string]string{"mode": "poem"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestNotes_StateTagsAndClearError(t *testing.T) {
	a := newTestApp(t)
	a.createNote(t, "u1", "t", "c", "go", "db")

	_, res := a.do(t, http.MethodGet, "/api/note/v1/tags", "u1", nil)
	assert.Equal(t, []string{"go", "db"}, decodeData[struct {
		Tags []string `json:"tags"`
	}](t, res).Tags)

	a.do(t, http.MethodPut, "/api/note/v1/missing", "u1", map[string]interface{}{"title": "x"})

	_, res = a.do(t, http.MethodGet, "/api/note/v1/state", "u1", nil)
	state := decodeData[map[string]interface{}](t, res)
	assert.Equal(t, float64(1), state["note_count"])
	require.NotNil(t, state["last_error"])

	status, _ := a.do(t, http.MethodDelete, "/api/note/v1/state/error", "u1", nil)
	assert.Equal(t, http.StatusOK, status)
	_, res = a.do(t, http.MethodGet, "/api/note/v1/state", "u1", nil)
	assert.Nil(t, decodeData[map[string]interface{}](t, res)["last_error"])
}

func TestAI_Questions(t *testing.T) {
	a := newTestApp(t)
	status, res := a.do(t, http.MethodPost, "/api/ai/v1/questions", "u1", map[string]string{"category": "behavioral"})
	require.Equal(t, http.StatusOK, status)
	questions := decodeData[struct {
		Questions []string `json:"questions"`
	}](t, res).Questions
	assert.Len(t, questions, 5)

	status, _ = a.do(t, http.MethodPost, "/api/ai/v1/questions", "u1", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestInterview_CompleteAndQuickNote(t *testing.T) {
	a := newTestApp(t)

	status, res := a.do(t, http.MethodPost, "/api/interview/v1/complete", "u1", map[string]string{
		"session_id": "sess-1", "transcript": "Q and A",
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	n := decodeData[entity.Note](t, res)
	assert.Equal(t, entity.OriginInterviewDerived, n.Origin)
	assert.Contains(t, n.Content, "**Session ID:** sess-1")
	assert.Equal(t, []string{"interview", "intelliprep"}, n.Tags)

	status, res = a.do(t, http.MethodPost, "/api/interview/v1/quick-note", "u1", map[string]string{
		"session_id": "sess-1", "content": "ask about team size",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Quick Note - Interview sess-1", decodeData[entity.Note](t, res).Title)

	status, _ = a.do(t, http.MethodPost, "/api/interview/v1/complete", "u1", map[string]string{"transcript": "x"})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSession_SignOutDropsStore(t *testing.T) {
	a := newTestApp(t)
	a.createNote(t, "u1", "t", "c")
	require.Equal(t, 1, a.registry.Count())

	status, _ := a.do(t, http.MethodPost, "/api/session/v1/signout", "u1", nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, a.manager.IsSignedIn("u1"))
	assert.Equal(t, 0, a.registry.Count())

	// Notes are still on the backend and come back on the next access.
	_, res := a.do(t, http.MethodGet, "/api/note/v1", "u1", nil)
	assert.Contains(t, string(res.Data), `"total":1`)
}

func TestSpeech_DictateSavesNote(t *testing.T) {
	a := newTestApp(t)
	rec := &scriptedRecognizer{events: make(chan speech.Event, 8), script: []speech.Event{
		{Kind: speech.EventStart},
		{Kind: speech.EventPartial, Text: "remember"},
		{Kind: speech.EventFinal, Text: "remember the milk"},
	}}
	a.speech["u1"] = speech.NewCoordinator(rec, nil)

	status, res := a.do(t, http.MethodPost, "/api/speech/v1/dictate", "u1", map[string]interface{}{
		"save_as_note": true, "title": "Groceries",
	})
	require.Equal(t, http.StatusOK, status, res.Message)
	out := decodeData[struct {
		Text string       `json:"text"`
		Note *entity.Note `json:"note"`
	}](t, res)
	assert.Equal(t, "remember the milk", out.Text)
	require.NotNil(t, out.Note)
	assert.Equal(t, "Groceries", out.Note.Title)
}

func TestSpeech_DictateAppendsToNote(t *testing.T) {
	a := newTestApp(t)
	n := a.createNote(t, "u1", "t", "first part")
	rec := &scriptedRecognizer{events: make(chan speech.Event, 8), script: []speech.Event{
		{Kind: speech.EventFinal, Text: "second part"},
	}}
	a.speech["u1"] = speech.NewCoordinator(rec, nil)

	_, res := a.do(t, http.MethodPost, "/api/speech/v1/dictate", "u1", map[string]interface{}{"note_id": n.Id})
	out := decodeData[struct {
		Note *entity.Note `json:"note"`
	}](t, res)
	require.NotNil(t, out.Note)
	assert.Equal(t, "first part second part", out.Note.Content)
}

func TestSpeech_DictateErrorMapsTo422(t *testing.T) {
	a := newTestApp(t)
	rec := &scriptedRecognizer{events: make(chan speech.Event, 8), script: []speech.Event{
		speech.ErrorEvent("7"),
	}}
	a.speech["u1"] = speech.NewCoordinator(rec, nil)

	status, res := a.do(t, http.MethodPost, "/api/speech/v1/dictate", "u1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, speech.ErrorMessage("7"), res.Message)
}
