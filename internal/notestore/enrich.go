package notestore

import (
	"context"
	"fmt"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/pkg/enrichment"
)

// Summarize stores an AI summary of the note's content. At most one enrichment
// runs per note; a second request while one is pending fails with Busy.
func (s *Store) Summarize(ctx context.Context, id string) (*entity.Note, error) {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		return nil, s.fail(ctx, "summarize", apperror.Auth("summarize"))
	}

	note, ok := s.find(id)
	if !ok {
		return nil, s.fail(ctx, "summarize", apperror.NotFound("summarize", id))
	}

	if err := s.beginEnrichment(ctx, sess, id, EnrichmentSummarize); err != nil {
		return nil, err
	}
	defer s.endEnrichment(ctx, sess, id)

	summary := s.enricher.Summarize(ctx, note.Content)
	return s.Update(ctx, id, entity.NotePatch{Summary: &summary})
}

// Enhance replaces the note's content with the AI rewrite. The previous content
// is not kept.
func (s *Store) Enhance(ctx context.Context, id string, mode enrichment.Mode) (*entity.Note, error) {
	sess := s.session.Current()
	if !sess.IsAuthenticated {
		return nil, s.fail(ctx, "enhance", apperror.Auth("enhance"))
	}
	if !mode.Valid() {
		return nil, s.fail(ctx, "enhance", apperror.Validation("enhance", fmt.Sprintf("Unknown enhancement mode %q.", mode)))
	}

	note, ok := s.find(id)
	if !ok {
		return nil, s.fail(ctx, "enhance", apperror.NotFound("enhance", id))
	}

	if err := s.beginEnrichment(ctx, sess, id, EnrichmentEnhance); err != nil {
		return nil, err
	}
	defer s.endEnrichment(ctx, sess, id)

	enhanced, err := s.enricher.Enhance(ctx, note.Content, mode)
	if err != nil {
		return nil, s.fail(ctx, "enhance", apperror.EnhancementFailed("enhance", err))
	}
	return s.Update(ctx, id, entity.NotePatch{Content: &enhanced})
}

func (s *Store) beginEnrichment(ctx context.Context, sess auth.Session, id string, kind EnrichmentKind) error {
	s.mu.Lock()
	if st, ok := s.enrichment[id]; ok && st.InProgress {
		s.mu.Unlock()
		return s.fail(ctx, string(kind), apperror.Busy(string(kind)))
	}
	st := EnrichmentStatus{Kind: kind, InProgress: true}
	s.enrichment[id] = st
	s.mu.Unlock()

	s.emit(ctx, Change{Kind: ChangeEnrichment, OwnerId: sess.UserId, NoteId: id, Enrichment: &st})
	return nil
}

func (s *Store) endEnrichment(ctx context.Context, sess auth.Session, id string) {
	s.mu.Lock()
	st, ok := s.enrichment[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	st.InProgress = false
	if s.indexOf(id) < 0 {
		delete(s.enrichment, id)
	} else {
		s.enrichment[id] = st
	}
	s.mu.Unlock()

	s.emit(ctx, Change{Kind: ChangeEnrichment, OwnerId: sess.UserId, NoteId: id, Enrichment: &st})
}

// IsEnriching reports whether an enrichment is in flight for id.
func (s *Store) IsEnriching(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enrichment[id].InProgress
}
