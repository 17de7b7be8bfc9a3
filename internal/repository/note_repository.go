package repository

import (
	"context"

	"gorm.io/gorm"

	"diarydesk/internal/model"
)

// NoteRepository defines note persistence. Every method is scoped to an
// owner; a note that exists but belongs to someone else is ErrNotFound.
type NoteRepository interface {
	Create(ctx context.Context, note *model.Note) error
	FindByOwner(ctx context.Context, owner, id string) (*model.Note, error)
	List(ctx context.Context, owner string, q NoteQuery) ([]model.Note, error)
	Update(ctx context.Context, owner, id string, upd NoteUpdate) (*model.Note, error)
	Delete(ctx context.Context, owner, id string) (*model.Note, error)
	DeleteMany(ctx context.Context, owner string, ids []string) (int64, error)
	DeleteByOwner(ctx context.Context, owner string) (int64, error)
}

type noteRepository struct {
	db *gorm.DB
}

// NewNoteRepository builds a GORM-backed repository.
func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *model.Note) error {
	return translateGormError(r.db.WithContext(ctx).Create(note).Error)
}

func (r *noteRepository) FindByOwner(ctx context.Context, owner, id string) (*model.Note, error) {
	var note model.Note
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, owner).First(&note).Error; err != nil {
		return nil, translateGormError(err)
	}
	return &note, nil
}

// List orders in SQL and filters in Go so substring matching over the
// JSON-encoded tags column behaves the same on every SQL dialect.
func (r *noteRepository) List(ctx context.Context, owner string, q NoteQuery) ([]model.Note, error) {
	var notes []model.Note
	err := r.db.WithContext(ctx).
		Where("user_id = ?", owner).
		Order(gormOrder(q.Sort)).
		Order("id").
		Find(&notes).Error
	if err != nil {
		return nil, translateGormError(err)
	}

	out := notes[:0]
	for i := range notes {
		if q.Matches(&notes[i]) {
			out = append(out, notes[i])
		}
	}
	return out, nil
}

func (r *noteRepository) Update(ctx context.Context, owner, id string, upd NoteUpdate) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, owner).First(&note).Error; err != nil {
			return err
		}
		upd.Apply(&note)
		return tx.Save(&note).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return &note, nil
}

func (r *noteRepository) Delete(ctx context.Context, owner, id string) (*model.Note, error) {
	var note model.Note
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ? AND user_id = ?", id, owner).First(&note).Error; err != nil {
			return err
		}
		return tx.Delete(&note).Error
	})
	if err != nil {
		return nil, translateGormError(err)
	}
	return &note, nil
}

func (r *noteRepository) DeleteMany(ctx context.Context, owner string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", owner, ids).Delete(&model.Note{})
	if res.Error != nil {
		return 0, translateGormError(res.Error)
	}
	return res.RowsAffected, nil
}

func (r *noteRepository) DeleteByOwner(ctx context.Context, owner string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", owner).Delete(&model.Note{})
	if res.Error != nil {
		return 0, translateGormError(res.Error)
	}
	return res.RowsAffected, nil
}

func gormOrder(k SortKey) string {
	switch k {
	case SortDateModified:
		return "updated_at DESC"
	case SortAlphabetical:
		return "title ASC"
	case SortAlphabeticalDesc:
		return "title DESC"
	default:
		return "created_at DESC"
	}
}
