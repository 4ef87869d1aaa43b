package implementation

import (
	"context"
	"errors"
	"sort"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/mapper"
	"intelliprep-notes-be/internal/model"
	"intelliprep-notes-be/internal/repository/contract"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const NotesCollection = "notes"

// FirestoreNoteRepository stores notes as documents in the Firebase "notes" collection.
type FirestoreNoteRepository struct {
	client *firestore.Client
	mapper *mapper.NoteDocumentMapper
	now    func() time.Time
}

var _ contract.NoteRepository = &FirestoreNoteRepository{}

func NewFirestoreNoteRepository(client *firestore.Client) *FirestoreNoteRepository {
	return &FirestoreNoteRepository{
		client: client,
		mapper: mapper.NewNoteDocumentMapper(),
		now:    time.Now,
	}
}

func (r *FirestoreNoteRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(NotesCollection)
}

func (r *FirestoreNoteRepository) List(ctx context.Context, ownerId string) ([]*entity.Note, error) {
	docs, err := r.collection().
		Where("userId", "==", ownerId).
		OrderBy("updatedAt", firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, classifyFirestoreError("list", "", err)
	}

	notes := make([]*entity.Note, 0, len(docs))
	for _, snap := range docs {
		var d model.NoteDocument
		if err := snap.DataTo(&d); err != nil {
			return nil, apperror.Remote("list", err)
		}
		notes = append(notes, r.mapper.ToEntity(snap.Ref.ID, &d))
	}

	// Firestore cannot order by document id after a range field without a composite index.
	sort.SliceStable(notes, func(i, j int) bool {
		if !notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
		}
		return notes[i].Id < notes[j].Id
	})
	return notes, nil
}

func (r *FirestoreNoteRepository) Insert(ctx context.Context, note *entity.Note) (*entity.Note, error) {
	doc := r.mapper.ToDocument(note)
	now := r.now().UTC().Truncate(time.Microsecond)
	doc.CreatedAt = now
	doc.UpdatedAt = now

	ref := r.collection().NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return nil, classifyFirestoreError("insert", "", err)
	}
	return r.mapper.ToEntity(ref.ID, doc), nil
}

func (r *FirestoreNoteRepository) Update(ctx context.Context, ownerId, id string, patch entity.NotePatch) (*entity.Note, error) {
	patch.UpdatedAt = patch.UpdatedAt.UTC()
	ref := r.collection().Doc(id)

	var updated *entity.Note
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		current, err := r.ownedSnapshot(tx, ref, ownerId, "update")
		if err != nil {
			return err
		}
		if err := tx.Update(ref, r.mapper.PatchUpdates(patch)); err != nil {
			return err
		}
		patch.Apply(current)
		updated = current
		return nil
	})
	if err != nil {
		return nil, classifyFirestoreError("update", id, err)
	}
	return updated, nil
}

func (r *FirestoreNoteRepository) Delete(ctx context.Context, ownerId, id string) error {
	ref := r.collection().Doc(id)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := r.ownedSnapshot(tx, ref, ownerId, "delete"); err != nil {
			return err
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return classifyFirestoreError("delete", id, err)
	}
	return nil
}

// ownedSnapshot reads the document inside tx and hides documents owned by someone else.
func (r *FirestoreNoteRepository) ownedSnapshot(tx *firestore.Transaction, ref *firestore.DocumentRef, ownerId, op string) (*entity.Note, error) {
	snap, err := tx.Get(ref)
	if err != nil {
		return nil, err
	}
	var d model.NoteDocument
	if err := snap.DataTo(&d); err != nil {
		return nil, err
	}
	if d.UserId != ownerId {
		return nil, apperror.NotFound(op, ref.ID)
	}
	return r.mapper.ToEntity(ref.ID, &d), nil
}

func classifyFirestoreError(op, id string, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	switch status.Code(err) {
	case codes.NotFound:
		return apperror.NotFound(op, id)
	case codes.PermissionDenied, codes.Unauthenticated:
		return apperror.PermissionDenied(op, err)
	case codes.ResourceExhausted:
		return apperror.QuotaExceeded(op, err)
	}
	return apperror.Remote(op, err)
}
