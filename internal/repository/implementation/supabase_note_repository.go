package implementation

import (
	"context"
	"errors"
	"time"

	"intelliprep-notes-be/internal/apperror"
	"intelliprep-notes-be/internal/entity"
	"intelliprep-notes-be/internal/mapper"
	"intelliprep-notes-be/internal/model"
	"intelliprep-notes-be/internal/pkg/logger"
	"intelliprep-notes-be/internal/repository/contract"
	"intelliprep-notes-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres SQLSTATE codes surfaced by Supabase row level security and plan limits.
const (
	pgInsufficientPrivilege = "42501"
	pgConfigLimitExceeded   = "53400"
)

// SupabaseNoteRepository talks to the Supabase Postgres database directly through gorm.
type SupabaseNoteRepository struct {
	db     *gorm.DB
	mapper *mapper.NoteMapper
	now    func() time.Time
}

var _ contract.NoteRepository = &SupabaseNoteRepository{}

func NewSupabaseNoteRepository(db *gorm.DB, log logger.ILogger) *SupabaseNoteRepository {
	return &SupabaseNoteRepository{
		db:     db,
		mapper: mapper.NewNoteMapper(log),
		now:    time.Now,
	}
}

func (r *SupabaseNoteRepository) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SupabaseNoteRepository) List(ctx context.Context, ownerId string) ([]*entity.Note, error) {
	var models []*model.Note
	specs := append([]specification.Specification{
		specification.NoteOwnedByUser{UserID: ownerId},
	}, specification.DefaultNoteOrder()...)

	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, classifyPgError("list", err)
	}
	return r.mapper.ToEntities(models), nil
}

func (r *SupabaseNoteRepository) Insert(ctx context.Context, note *entity.Note) (*entity.Note, error) {
	m := r.mapper.ToModel(note)
	now := r.now().UTC().Truncate(time.Microsecond)
	m.Id = uuid.New().String()
	m.CreatedAt = now
	m.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return nil, classifyPgError("insert", err)
	}
	return r.mapper.ToEntity(m), nil
}

func (r *SupabaseNoteRepository) Update(ctx context.Context, ownerId, id string, patch entity.NotePatch) (*entity.Note, error) {
	patch.UpdatedAt = patch.UpdatedAt.UTC()
	scope := []specification.Specification{
		specification.ByID{ID: id},
		specification.NoteOwnedByUser{UserID: ownerId},
	}

	res := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Note{}), scope...).
		Updates(r.mapper.PatchColumns(patch))
	if res.Error != nil {
		return nil, classifyPgError("update", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("update", id)
	}

	var m model.Note
	if err := r.applySpecifications(r.db.WithContext(ctx), scope...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("update", id)
		}
		return nil, classifyPgError("update", err)
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SupabaseNoteRepository) Delete(ctx context.Context, ownerId, id string) error {
	res := r.applySpecifications(r.db.WithContext(ctx),
		specification.ByID{ID: id},
		specification.NoteOwnedByUser{UserID: ownerId},
	).Delete(&model.Note{})
	if res.Error != nil {
		return classifyPgError("delete", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("delete", id)
	}
	return nil
}

func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInsufficientPrivilege:
			return apperror.PermissionDenied(op, err)
		case pgConfigLimitExceeded:
			return apperror.QuotaExceeded(op, err)
		}
	}
	return apperror.Remote(op, err)
}
