package notestore

import (
	"sort"
	"strings"

	"intelliprep-notes-be/internal/entity"
)

// Search is a pure derived view: notes whose title or content contains query
// (case-insensitive) and, when tags is non-empty, carry at least one of them.
// Results are copies in canonical order.
func (s *Store) Search(query string, tags []string) []*entity.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(s.notes, query, tags)
}

// Filtered applies the stored search query and tag selection.
func (s *Store) Filtered() []*entity.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return search(s.notes, s.searchQuery, s.selectedTags)
}

// SortedBy returns the filtered view ordered by key. Unknown keys sort by date.
func (s *Store) SortedBy(key SortKey) []*entity.Note {
	notes := s.Filtered()
	if key == SortByTitle {
		sort.SliceStable(notes, func(i, j int) bool {
			a, b := strings.ToLower(notes[i].Title), strings.ToLower(notes[j].Title)
			if a != b {
				return a < b
			}
			return notes[i].Id < notes[j].Id
		})
	}
	return notes
}

func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.searchQuery = query
	s.mu.Unlock()
}

func (s *Store) SetSelectedTags(tags []string) {
	s.mu.Lock()
	s.selectedTags = append([]string(nil), tags...)
	s.mu.Unlock()
}

// AllTags lists every distinct tag in canonical note order.
func (s *Store) AllTags() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	tags := make([]string, 0)
	for _, n := range s.notes {
		for _, t := range n.Tags {
			if !seen[t] {
				seen[t] = true
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func search(notes []*entity.Note, query string, tags []string) []*entity.Note {
	q := strings.ToLower(query)
	out := make([]*entity.Note, 0, len(notes))
	for _, n := range notes {
		if q != "" &&
			!strings.Contains(strings.ToLower(n.Title), q) &&
			!strings.Contains(strings.ToLower(n.Content), q) {
			continue
		}
		if len(tags) > 0 && !n.HasAnyTag(tags) {
			continue
		}
		out = append(out, n.Clone())
	}
	return out
}
