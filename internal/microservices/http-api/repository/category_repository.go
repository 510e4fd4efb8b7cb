package repository

import (
	"context"

	"bukinn/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type CategoryRepository interface {
	List(ctx context.Context, query string, offset, limit int) ([]models.Category, int64, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.Category, error)
	FindWithBooks(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) List(ctx context.Context, query string, offset, limit int) ([]models.Category, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&models.Category{}).Scopes(nameLike(query)).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	categories := []models.Category{}
	err := conn(ctx, r.db).Scopes(nameLike(query)).Order("name ASC").Offset(offset).Limit(limit).Find(&categories).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return categories, total, nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := conn(ctx, r.db).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

// FindByIDs returns the categories that exist among ids.
func (r *categoryRepository) FindByIDs(ctx context.Context, ids []string) ([]models.Category, error) {
	categories := []models.Category{}
	if len(ids) == 0 {
		return categories, nil
	}
	if err := conn(ctx, r.db).Where("id IN ?", ids).Find(&categories).Error; err != nil {
		return nil, translate(err)
	}
	return categories, nil
}

func (r *categoryRepository) FindWithBooks(ctx context.Context, id string) (*models.Category, error) {
	var category models.Category
	if err := conn(ctx, r.db).Preload("Books", bookSummary).First(&category, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (r *categoryRepository) Create(ctx context.Context, category *models.Category) error {
	return translate(conn(ctx, r.db).Omit("Books").Create(category).Error)
}

func (r *categoryRepository) Update(ctx context.Context, category *models.Category) error {
	result := conn(ctx, r.db).Model(category).
		Select("name", "description", "updated_at").
		Updates(category)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.Category{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
