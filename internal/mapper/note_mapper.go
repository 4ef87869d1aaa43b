package mapper

import (
	"encoding/json"

	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/model"
	"intelliprep-notes-be/internal/pkg/logger"

	"gorm.io/datatypes"
)

type NoteMapper struct {
	logger logger.ILogger
}

func NewNoteMapper(log logger.ILogger) *NoteMapper {
	if log == nil {
		log = logger.NewNop()
	}
	return &NoteMapper{logger: log}
}

func (m *NoteMapper) ToEntity(n *model.Note) *entity.Note {
	if n == nil {
		return nil
	}

	tags := m.decodeTags(n)

	origin := entity.OriginManual
	if n.IsFromInterview {
		origin = entity.OriginInterviewDerived
	}

	return &entity.Note{
		Id:         n.Id,
		OwnerId:    n.UserId,
		Title:      n.Title,
		Content:    n.Content,
		Summary:    n.Summary,
		Tags:       tags,
		IsFavorite: n.IsFavorite,
		Origin:     origin,
		SessionId:  n.InterviewId,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func (m *NoteMapper) ToModel(n *entity.Note) *model.Note {
	if n == nil {
		return nil
	}

	return &model.Note{
		Id:              n.Id,
		UserId:          n.OwnerId,
		Title:           n.Title,
		Content:         n.Content,
		Summary:         n.Summary,
		Tags:            m.TagsColumn(n.Tags),
		IsFavorite:      n.IsFavorite,
		IsFromInterview: n.Origin == entity.OriginInterviewDerived,
		InterviewId:     n.SessionId,
		CreatedAt:       n.CreatedAt,
		UpdatedAt:       n.UpdatedAt,
	}
}

func (m *NoteMapper) ToEntities(notes []*model.Note) []*entity.Note {
	entities := make([]*entity.Note, len(notes))
	for i, n := range notes {
		entities[i] = m.ToEntity(n)
	}
	return entities
}

// TagsColumn encodes tags for the jsonb column. A nil slice is stored as [].
func (m *NoteMapper) TagsColumn(tags []string) datatypes.JSON {
	if tags == nil {
		tags = []string{}
	}
	b, _ := json.Marshal(tags)
	return datatypes.JSON(b)
}

// PatchColumns converts a patch into the column map used by gorm Updates.
func (m *NoteMapper) PatchColumns(p entity.NotePatch) map[string]interface{} {
	cols := map[string]interface{}{
		"updated_at": p.UpdatedAt,
	}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Content != nil {
		cols["content"] = *p.Content
	}
	if p.Summary != nil {
		cols["summary"] = *p.Summary
	}
	if p.Tags != nil {
		cols["tags"] = m.TagsColumn(p.Tags)
	}
	if p.IsFavorite != nil {
		cols["is_favorite"] = *p.IsFavorite
	}
	return cols
}

// decodeTags never fails the row: a malformed or empty column maps to the default tag.
func (m *NoteMapper) decodeTags(n *model.Note) []string {
	var tags []string
	if len(n.Tags) > 0 {
		if err := json.Unmarshal(n.Tags, &tags); err != nil {
			m.logger.Warn("NoteMapper", "Malformed tags column", map[string]interface{}{
				"note_id": n.Id,
				"error":   err.Error(),
			})
			tags = nil
		}
	}
	if len(tags) == 0 {
		return []string{entity.DefaultTag}
	}
	return tags
}
