package notestore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/pkg/enrichment"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// fakeRepo is an in-memory NoteRepository with injectable failures.
type fakeRepo struct {
	mu    sync.Mutex
	clock *testClock
	rows  map[string]*entity.Note
	seq   int
	calls map[string]int

	failList   error
	failInsert error
	failUpdate error
	failDelete error
}

func newFakeRepo(clock *testClock) *fakeRepo {
	return &fakeRepo{clock: clock, rows: make(map[string]*entity.Note), calls: make(map[string]int)}
}

func (r *fakeRepo) List(_ context.Context, ownerId string) ([]*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["list"]++
	if r.failList != nil {
		return nil, r.failList
	}
	var out []*entity.Note
	for _, n := range r.rows {
		if n.OwnerId == ownerId {
			out = append(out, n.Clone())
		}
	}
	sortNotes(out)
	return out, nil
}

func (r *fakeRepo) Insert(_ context.Context, note *entity.Note) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["insert"]++
	if r.failInsert != nil {
		return nil, r.failInsert
	}
	r.seq++
	n := note.Clone()
	n.Id = fmt.Sprintf("note-%03d", r.seq)
	n.CreatedAt = r.clock.Now()
	n.UpdatedAt = n.CreatedAt
	r.rows[n.Id] = n
	return n.Clone(), nil
}

func (r *fakeRepo) Update(_ context.Context, ownerId, id string, patch entity.NotePatch) (*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["update"]++
	if r.failUpdate != nil {
		return nil, r.failUpdate
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerId != ownerId {
		return nil, apperror.NotFound("update", id)
	}
	patch.Apply(n)
	return n.Clone(), nil
}

func (r *fakeRepo) Delete(_ context.Context, ownerId, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls["delete"]++
	if r.failDelete != nil {
		return r.failDelete
	}
	n, ok := r.rows[id]
	if !ok || n.OwnerId != ownerId {
		return apperror.NotFound("delete", id)
	}
	delete(r.rows, id)
	return nil
}

func (r *fakeRepo) callCount(op string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[op]
}

func (r *fakeRepo) setFailure(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch op {
	case "list":
		r.failList = err
	case "insert":
		r.failInsert = err
	case "update":
		r.failUpdate = err
	case "delete":
		r.failDelete = err
	}
}

// blockingEnricher counts calls and can hold them until released.
type blockingEnricher struct {
	mu       sync.Mutex
	calls    int
	entered  chan struct{}
	release  chan struct{}
	summary  string
	enhanced string
	err      error
}

func newBlockingEnricher() *blockingEnricher {
	return &blockingEnricher{summary: "AI summary.", enhanced: "AI content."}
}

func (e *blockingEnricher) block() {
	e.entered = make(chan struct{}, 1)
	e.release = make(chan struct{})
}

func (e *blockingEnricher) wait() {
	e.mu.Lock()
	e.calls++
	entered, release := e.entered, e.release
	e.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
		<-release
	}
}

func (e *blockingEnricher) Summarize(_ context.Context, _ string) string {
	e.wait()
	return e.summary
}

func (e *blockingEnricher) Enhance(_ context.Context, _ string, _ enrichment.Mode) (string, error) {
	e.wait()
	if e.err != nil {
		return "", e.err
	}
	return e.enhanced, nil
}

func (e *blockingEnricher) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type recordingSink struct {
	mu      sync.Mutex
	changes []Change
}

func (s *recordingSink) Emit(_ context.Context, c Change) {
	s.mu.Lock()
	s.changes = append(s.changes, c)
	s.mu.Unlock()
}

func (s *recordingSink) kinds() []ChangeKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChangeKind, len(s.changes))
	for i, c := range s.changes {
		out[i] = c.Kind
	}
	return out
}
