package repository

import (
	"context"

	"bukinn/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

type AuthorRepository interface {
	List(ctx context.Context, query string, offset, limit int) ([]models.Author, int64, error)
	FindByID(ctx context.Context, id string) (*models.Author, error)
	FindWithBooks(ctx context.Context, id string) (*models.Author, error)
	Create(ctx context.Context, author *models.Author) error
	Update(ctx context.Context, author *models.Author) error
	Delete(ctx context.Context, id string) error
}

type authorRepository struct {
	db *gorm.DB
}

func NewAuthorRepository(db *gorm.DB) AuthorRepository {
	return &authorRepository{db: db}
}

// bookSummary is the book projection embedded in author and category pages.
func bookSummary(db *gorm.DB) *gorm.DB {
	return db.Select("books.id", "books.title", "books.description", "books.cover_image", "books.author_id").
		Where("books.content_status = ?", models.StatusPublished).
		Order("books.title ASC")
}

func nameLike(query string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if query == "" {
			return db
		}
		return db.Where("name ILIKE ?", "%"+escapeLike(query)+"%")
	}
}

func (r *authorRepository) List(ctx context.Context, query string, offset, limit int) ([]models.Author, int64, error) {
	var total int64
	if err := conn(ctx, r.db).Model(&models.Author{}).Scopes(nameLike(query)).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	authors := []models.Author{}
	err := conn(ctx, r.db).Scopes(nameLike(query)).Order("name ASC").Offset(offset).Limit(limit).Find(&authors).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return authors, total, nil
}

func (r *authorRepository) FindByID(ctx context.Context, id string) (*models.Author, error) {
	var author models.Author
	if err := conn(ctx, r.db).First(&author, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &author, nil
}

func (r *authorRepository) FindWithBooks(ctx context.Context, id string) (*models.Author, error) {
	var author models.Author
	if err := conn(ctx, r.db).Preload("Books", bookSummary).First(&author, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &author, nil
}

func (r *authorRepository) Create(ctx context.Context, author *models.Author) error {
	return translate(conn(ctx, r.db).Omit("Books").Create(author).Error)
}

func (r *authorRepository) Update(ctx context.Context, author *models.Author) error {
	result := conn(ctx, r.db).Model(author).
		Select("name", "bio", "email", "website", "profile_image", "updated_at").
		Updates(author)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *authorRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.Author{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
