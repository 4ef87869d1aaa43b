package mapper

import (
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/model"

	"cloud.google.com/go/firestore"
)

type NoteDocumentMapper struct{}

func NewNoteDocumentMapper() *NoteDocumentMapper {
	return &NoteDocumentMapper{}
}

func (m *NoteDocumentMapper) ToEntity(id string, d *model.NoteDocument) *entity.Note {
	if d == nil {
		return nil
	}

	origin := entity.OriginManual
	if d.Source == model.SourceIntelliprep {
		origin = entity.OriginInterviewDerived
	}

	return &entity.Note{
		Id:         id,
		OwnerId:    d.UserId,
		Title:      d.Title,
		Content:    d.Content,
		Summary:    d.Summary,
		Tags:       d.Tags,
		IsFavorite: d.IsFavorite,
		Origin:     origin,
		SessionId:  d.InterviewId,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (m *NoteDocumentMapper) ToDocument(n *entity.Note) *model.NoteDocument {
	if n == nil {
		return nil
	}

	source := model.SourceManual
	if n.Origin == entity.OriginInterviewDerived {
		source = model.SourceIntelliprep
	}

	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.NoteDocument{
		UserId:      n.OwnerId,
		Title:       n.Title,
		Content:     n.Content,
		Summary:     n.Summary,
		Tags:        tags,
		IsFavorite:  n.IsFavorite,
		Source:      source,
		InterviewId: n.SessionId,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

// PatchUpdates converts a patch into firestore field updates.
func (m *NoteDocumentMapper) PatchUpdates(p entity.NotePatch) []firestore.Update {
	updates := []firestore.Update{{Path: "updatedAt", Value: p.UpdatedAt}}
	if p.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *p.Title})
	}
	if p.Content != nil {
		updates = append(updates, firestore.Update{Path: "content", Value: *p.Content})
	}
	if p.Summary != nil {
		updates = append(updates, firestore.Update{Path: "summary", Value: *p.Summary})
	}
	if p.Tags != nil {
		updates = append(updates, firestore.Update{Path: "tags", Value: p.Tags})
	}
	if p.IsFavorite != nil {
		updates = append(updates, firestore.Update{Path: "isFavorite", Value: *p.IsFavorite})
	}
	return updates
}
