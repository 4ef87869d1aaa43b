package notestore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/repository/contract"
)

const module = "NOTESTORE"

// Store mirrors one user's notes and is the only writer of that collection.
// Remote writes are confirmed before they touch local state.
type Store struct {
	repo     contract.NoteRepository
	session  auth.SessionProvider
	enricher Enricher
	sink     EventSink
	logger   logger.ILogger
	now      func() time.Time

	mu            sync.RWMutex
	notes         []*entity.Note
	searchQuery   string
	selectedTags  []string
	loadsInFlight int
	enrichment    map[string]EnrichmentStatus
	lastError     *ErrorInfo
	generation    uint64 // bumped by Reset; completions from an older generation are dropped

	noteLocks *keyedMutex

	subsMu sync.RWMutex
	subs   map[int]func(Change)
	nextId int
}

type Option func(*Store)

func WithEventSink(sink EventSink) Option {
	return func(s *Store) { s.sink = sink }
}

func WithLogger(log logger.ILogger) Option {
	return func(s *Store) { s.logger = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(repo contract.NoteRepository, session auth.SessionProvider, enricher Enricher, opts ...Option) *Store {
	s := &Store{
		repo:       repo,
		session:    session,
		enricher:   enricher,
		logger:     logger.NewNop(),
		now:        time.Now,
		enrichment: make(map[string]EnrichmentStatus),
		noteLocks:  newKeyedMutex(),
		subs:       make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces local state with the owner's notes. Without a session it clears
// local state and succeeds. A failed fetch leaves local state untouched.
func (s *Store) Load(ctx context.Context) error {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		s.Reset()
		return nil
	}

	s.mu.Lock()
	s.loadsInFlight++
	gen := s.generation
	s.mu.Unlock()

	notes, err := s.repo.List(ctx, sess.UserId)

	s.mu.Lock()
	s.loadsInFlight--
	if err != nil {
		s.mu.Unlock()
		return s.fail(ctx, "load", err)
	}
	if gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	s.notes = make([]*entity.Note, 0, len(notes))
	for _, n := range notes {
		if n.OwnerId != sess.UserId {
			continue
		}
		s.notes = append(s.notes, n.Clone())
	}
	sortNotes(s.notes)
	for id := range s.enrichment {
		if !s.enrichment[id].InProgress && s.indexOf(id) < 0 {
			delete(s.enrichment, id)
		}
	}
	s.lastError = nil
	count := len(s.notes)
	s.mu.Unlock()

	s.logger.Info(module, "Notes loaded", map[string]interface{}{"user_id": sess.UserId, "count": count})
	s.emit(ctx, Change{Kind: ChangeLoaded, OwnerId: sess.UserId})
	return nil
}

func (s *Store) Create(ctx context.Context, in CreateInput) (*entity.Note, error) {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		return nil, s.fail(ctx, "create", apperror.Auth("create"))
	}

	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, s.fail(ctx, "create", apperror.Validation("create", "Please fill in both title and content."))
	}

	note := &entity.Note{
		OwnerId: sess.UserId,
		Title:   title,
		Content: content,
		Tags:    entity.NormalizeTags(in.Tags),
		Origin:  entity.OriginManual,
	}
	if in.Origin == entity.OriginInterviewDerived {
		note.Origin = entity.OriginInterviewDerived
		if in.SessionId != nil {
			id := *in.SessionId
			note.SessionId = &id
		}
	}

	gen := s.currentGeneration()
	created, err := s.repo.Insert(ctx, note)
	if err != nil {
		return nil, s.fail(ctx, "create", err)
	}

	s.mu.Lock()
	if gen == s.generation {
		s.notes = append(s.notes, created.Clone())
		sortNotes(s.notes)
	}
	s.mu.Unlock()

	s.logger.Info(module, "Note created", map[string]interface{}{"user_id": sess.UserId, "note_id": created.Id, "origin": created.Origin})
	s.emit(ctx, Change{Kind: ChangeCreated, OwnerId: sess.UserId, NoteId: created.Id, Note: created.Clone()})
	return created.Clone(), nil
}

// Update applies patch to a note already present in local state. The list is
// re-sorted as soon as the backend confirms the write.
func (s *Store) Update(ctx context.Context, id string, patch entity.NotePatch) (*entity.Note, error) {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		return nil, s.fail(ctx, "update", apperror.Auth("update"))
	}

	unlock := s.noteLocks.Lock(id)
	defer unlock()
	return s.updateLocked(ctx, sess, id, patch)
}

func (s *Store) ToggleFavorite(ctx context.Context, id string) (*entity.Note, error) {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		return nil, s.fail(ctx, "toggle_favorite", apperror.Auth("toggle_favorite"))
	}

	unlock := s.noteLocks.Lock(id)
	defer unlock()

	current, ok := s.find(id)
	if !ok {
		return nil, s.fail(ctx, "toggle_favorite", apperror.NotFound("toggle_favorite", id))
	}
	flipped := !current.IsFavorite
	return s.updateLocked(ctx, sess, id, entity.NotePatch{IsFavorite: &flipped})
}

// updateLocked expects the caller to hold the note's lock.
func (s *Store) updateLocked(ctx context.Context, sess auth.Session, id string, patch entity.NotePatch) (*entity.Note, error) {
	patch, err := validatePatch(patch)
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}

	current, ok := s.find(id)
	if !ok {
		return nil, s.fail(ctx, "update", apperror.NotFound("update", id))
	}
	patch.UpdatedAt = s.nextUpdatedAt(current.UpdatedAt)

	gen := s.currentGeneration()
	updated, err := s.repo.Update(ctx, sess.UserId, id, patch)
	if err != nil {
		return nil, s.fail(ctx, "update", err)
	}

	s.mu.Lock()
	if gen == s.generation {
		if i := s.indexOf(id); i >= 0 {
			s.notes[i] = updated.Clone()
			sortNotes(s.notes)
		}
	}
	s.mu.Unlock()

	s.emit(ctx, Change{Kind: ChangeUpdated, OwnerId: sess.UserId, NoteId: id, Note: updated.Clone()})
	return updated.Clone(), nil
}

// Delete removes the note remotely first and locally only after confirmation.
func (s *Store) Delete(ctx context.Context, id string) error {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		return s.fail(ctx, "delete", apperror.Auth("delete"))
	}

	unlock := s.noteLocks.Lock(id)
	defer unlock()

	if _, ok := s.find(id); !ok {
		return s.fail(ctx, "delete", apperror.NotFound("delete", id))
	}

	gen := s.currentGeneration()
	if err := s.repo.Delete(ctx, sess.UserId, id); err != nil {
		return s.fail(ctx, "delete", err)
	}

	s.mu.Lock()
	if gen == s.generation {
		if i := s.indexOf(id); i >= 0 {
			s.notes = append(s.notes[:i], s.notes[i+1:]...)
		}
		if st, ok := s.enrichment[id]; ok && !st.InProgress {
			delete(s.enrichment, id)
		}
	}
	s.mu.Unlock()

	s.logger.Info(module, "Note deleted", map[string]interface{}{"user_id": sess.UserId, "note_id": id})
	s.emit(ctx, Change{Kind: ChangeDeleted, OwnerId: sess.UserId, NoteId: id})
	return nil
}

// Reset drops every note and all transient state except in-flight enrichment
// markers, which their own call clears. Used on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.notes = nil
	s.searchQuery = ""
	s.selectedTags = nil
	// In-flight markers survive so a reloaded note cannot start a second AI call.
	inFlight := make(map[string]EnrichmentStatus)
	for id, st := range s.enrichment {
		if st.InProgress {
			inFlight[id] = st
		}
	}
	s.enrichment = inFlight
	s.lastError = nil
	s.generation++
	s.mu.Unlock()

	s.emit(context.Background(), Change{Kind: ChangeReset, OwnerId: s.session.Current().UserId})
}

// HasSession reports whether the store currently acts for a signed-in user.
func (s *Store) HasSession() bool {
	return s.session.Current().IsAuthenticated
}

// OnAuthEvent resets the store when its owner signs out.
func (s *Store) OnAuthEvent(evt auth.Event) {
	if evt.Kind == auth.SignedOut && evt.UserId == s.session.Current().UserId {
		s.Reset()
	}
}

func (s *Store) ClearError() {
	s.mu.Lock()
	s.lastError = nil
	s.mu.Unlock()
}

func (s *Store) LastError() *ErrorInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastError == nil {
		return nil
	}
	e := *s.lastError
	return &e
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Notes:             cloneNotes(s.notes),
		SearchQuery:       s.searchQuery,
		SelectedTags:      append([]string(nil), s.selectedTags...),
		IsLoading:         s.loadsInFlight > 0,
		PerNoteEnrichment: make(map[string]EnrichmentStatus, len(s.enrichment)),
	}
	for id, e := range s.enrichment {
		st.PerNoteEnrichment[id] = e
	}
	if s.lastError != nil {
		e := *s.lastError
		st.LastError = &e
	}
	return st
}

// Subscribe registers fn for every change and returns its cancel func.
// fn runs synchronously on the goroutine that made the change.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subsMu.Lock()
	id := s.nextId
	s.nextId++
	s.subs[id] = fn
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		delete(s.subs, id)
		s.subsMu.Unlock()
	}
}

func (s *Store) emit(ctx context.Context, c Change) {
	if c.At.IsZero() {
		c.At = s.now().UTC()
	}

	s.subsMu.RLock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.RUnlock()

	for _, fn := range subs {
		fn(c)
	}
	if s.sink != nil {
		s.sink.Emit(ctx, c)
	}
}

// fail records err as the last error and returns it as an *apperror.Error.
func (s *Store) fail(ctx context.Context, op string, err error) error {
	appErr := asAppError(op, err)
	info := &ErrorInfo{
		Kind:    appErr.Kind,
		Op:      op,
		Message: apperror.UserMessage(appErr),
		At:      s.now().UTC(),
	}

	s.mu.Lock()
	s.lastError = info
	s.mu.Unlock()

	details := map[string]interface{}{"op": op, "kind": appErr.Kind, "error": err}
	if appErr.Kind == apperror.KindRemote || appErr.Kind == apperror.KindEnhancementFailed {
		s.logger.Error(module, "Note operation failed", details)
	} else {
		s.logger.Warn(module, "Note operation rejected", details)
	}

	e := *info
	s.emit(ctx, Change{Kind: ChangeError, OwnerId: s.session.Current().UserId, Error: &e})
	return appErr
}

// asAppError keeps typed failures and treats anything else as a backend failure.
func asAppError(op string, err error) *apperror.Error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperror.Remote(op, err)
}

func (s *Store) currentGeneration() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// nextUpdatedAt is strictly after prev even when the clock has not advanced.
func (s *Store) nextUpdatedAt(prev time.Time) time.Time {
	now := s.now().UTC().Truncate(time.Microsecond)
	if floor := prev.Add(time.Microsecond); now.Before(floor) {
		return floor.UTC()
	}
	return now
}

func (s *Store) find(id string) (*entity.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(id); i >= 0 {
		return s.notes[i].Clone(), true
	}
	return nil, false
}

// indexOf expects s.mu to be held.
func (s *Store) indexOf(id string) int {
	for i, n := range s.notes {
		if n.Id == id {
			return i
		}
	}
	return -1
}

func validatePatch(p entity.NotePatch) (entity.NotePatch, error) {
	if p.IsEmpty() {
		return p, apperror.Validation("update", "Nothing to update.")
	}
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return p, apperror.Validation("update", "Title cannot be empty.")
		}
		p.Title = &t
	}
	if p.Content != nil {
		c := strings.TrimSpace(*p.Content)
		if c == "" {
			return p, apperror.Validation("update", "Content cannot be empty.")
		}
		p.Content = &c
	}
	if p.Tags != nil {
		p.Tags = entity.NormalizeTags(p.Tags)
	}
	return p, nil
}

// sortNotes orders by updatedAt desc, then id asc.
func sortNotes(notes []*entity.Note) {
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].Id < notes[j].Id
	})
}

func cloneNotes(notes []*entity.Note) []*entity.Note {
	out := make([]*entity.Note, len(notes))
	for i, n := range notes {
		out[i] = n.Clone()
	}
	return out
}
