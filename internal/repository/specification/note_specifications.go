package specification

import "gorm.io/gorm"

type NoteOwnedByUser struct {
	UserID string
}

func (s NoteOwnedByUser) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("notes.user_id = ?", s.UserID)
}

// DefaultNoteOrder is updated_at desc with id asc as the tie breaker.
func DefaultNoteOrder() []Specification {
	return []Specification{
		OrderBy{Field: "updated_at", Desc: true},
		OrderBy{Field: "id"},
	}
}
