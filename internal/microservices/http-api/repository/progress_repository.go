package repository

import (
	"context"

	"bukinn/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type progressRepository struct {
	db *gorm.DB
}

type ProgressRepository interface {
	Find(ctx context.Context, userID, bookID string) (*models.Progress, error)
	FindWithBook(ctx context.Context, userID, bookID string) (*models.Progress, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Progress, int64, error)
	Save(ctx context.Context, progress *models.Progress) error
}

func NewProgressRepository(db *gorm.DB) ProgressRepository {
	return &progressRepository{db: db}
}

func (r *progressRepository) Find(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	var progress models.Progress
	if err := conn(ctx, r.db).Where("user_id = ? AND book_id = ?", userID, bookID).First(&progress).Error; err != nil {
		return nil, translate(err)
	}
	return &progress, nil
}

func (r *progressRepository) FindWithBook(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	var progress models.Progress
	err := conn(ctx, r.db).
		Preload("Book", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "cover_image") }).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		First(&progress).Error
	if err != nil {
		return nil, translate(err)
	}
	return &progress, nil
}

func (r *progressRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]models.Progress, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&models.Progress{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	list := []models.Progress{}
	if total == 0 {
		return list, 0, nil
	}
	err := conn(ctx, r.db).
		Preload("Book", func(db *gorm.DB) *gorm.DB { return db.Select("id", "title", "cover_image") }).
		Where("user_id = ?", userID).
		Order("last_read_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&list).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return list, total, nil
}

// Save inserts a record that has no id yet and updates the position
// columns of an existing one. A second insert for the same (user, book)
// fails with ErrDuplicate.
func (r *progressRepository) Save(ctx context.Context, progress *models.Progress) error {
	if progress.ID == "" {
		return translate(conn(ctx, r.db).Omit("Book").Create(progress).Error)
	}
	result := conn(ctx, r.db).Model(progress).
		Select("last_chapter_order", "completion_percentage", "last_read_at", "updated_at").
		Updates(progress)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
