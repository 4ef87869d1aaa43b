package entity

import (
	"strings"
	"time"
)

type Origin string

const (
	OriginManual           Origin = "manual"
	OriginInterviewDerived Origin = "interview-derived"
)

// DefaultTag is applied when a note is saved without any usable tag.
const DefaultTag = "general"

type Note struct {
	Id         string    `json:"id"`
	OwnerId    string    `json:"owner_id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Summary    *string   `json:"summary,omitempty"`
	Tags       []string  `json:"tags"`
	IsFavorite bool      `json:"is_favorite"`
	Origin     Origin    `json:"origin"`
	SessionId  *string   `json:"session_id,omitempty"` // weak back-reference to the interview session
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy so callers never share slices or pointers with the store.
func (n *Note) Clone() *Note {
	if n == nil {
		return nil
	}
	c := *n
	if n.Summary != nil {
		s := *n.Summary
		c.Summary = &s
	}
	if n.SessionId != nil {
		s := *n.SessionId
		c.SessionId = &s
	}
	if n.Tags != nil {
		c.Tags = append([]string(nil), n.Tags...)
	}
	return &c
}

func (n *Note) HasAnyTag(tags []string) bool {
	for _, want := range tags {
		for _, have := range n.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

// NotePatch is a partial update. Nil fields are left untouched.
// Id, OwnerId and CreatedAt are deliberately absent: they never change after creation.
type NotePatch struct {
	Title      *string
	Content    *string
	Summary    *string
	Tags       []string
	IsFavorite *bool
	UpdatedAt  time.Time
}

func (p NotePatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.Summary == nil && p.Tags == nil && p.IsFavorite == nil
}

// Apply writes the patch onto n, including UpdatedAt.
func (p NotePatch) Apply(n *Note) {
	if p.Title != nil {
		n.Title = *p.Title
	}
	if p.Content != nil {
		n.Content = *p.Content
	}
	if p.Summary != nil {
		s := *p.Summary
		n.Summary = &s
	}
	if p.Tags != nil {
		n.Tags = append([]string(nil), p.Tags...)
	}
	if p.IsFavorite != nil {
		n.IsFavorite = *p.IsFavorite
	}
	if !p.UpdatedAt.IsZero() {
		n.UpdatedAt = p.UpdatedAt
	}
}

// NormalizeTags trims, drops blanks and duplicates (first occurrence wins),
// and falls back to the default tag when nothing is left.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) == 0 {
		return []string{DefaultTag}
	}
	return out
}
