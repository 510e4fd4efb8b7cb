package service

import (
	"context"
	"errors"

	"bukinn/internal/apperror"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"

	"go.uber.org/zap"
)

var (
	ErrCategoryNotFound = apperror.NotFound("Category not found")
	ErrCategoryHasBooks = apperror.Validation("Cannot delete category with associated books")
	ErrCategoryExists   = apperror.Conflict("Category with this name already exists")
)

type CategoryInput struct {
	Name        *string
	Description *string
}

type CategoryService interface {
	List(ctx context.Context, query string, page, limit int) ([]models.Category, int64, error)
	Get(ctx context.Context, id string) (*models.Category, error)
	Create(ctx context.Context, in CategoryInput) (*models.Category, error)
	Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error)
	Delete(ctx context.Context, id string) error
}

type categoryService struct {
	categories repository.CategoryRepository
	books      repository.BookRepository
	logger     *zap.Logger
}

func NewCategoryService(categories repository.CategoryRepository, books repository.BookRepository, logger *zap.Logger) CategoryService {
	return &categoryService{categories: categories, books: books, logger: logger}
}

func (s *categoryService) List(ctx context.Context, query string, page, limit int) ([]models.Category, int64, error) {
	page, limit = normalizePage(page, limit, 10, 100)
	categories, total, err := s.categories.List(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return categories, total, nil
}

func (s *categoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	category, err := s.categories.FindWithBooks(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, apperror.Internal(err)
	}
	return category, nil
}

func (s *categoryService) Create(ctx context.Context, in CategoryInput) (*models.Category, error) {
	category := &models.Category{}
	if in.Name != nil {
		category.Name = *in.Name
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, categoryWriteError(err)
	}
	s.logger.Info("category created", zap.String("category_id", category.ID), zap.String("name", category.Name))
	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id string, in CategoryInput) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, apperror.Internal(err)
	}
	if in.Name != nil {
		category.Name = *in.Name
	}
	if in.Description != nil {
		category.Description = *in.Description
	}
	if err := s.categories.Update(ctx, category); err != nil {
		return nil, categoryWriteError(err)
	}
	return category, nil
}

func (s *categoryService) Delete(ctx context.Context, id string) error {
	n, err := s.books.CountByCategory(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if n > 0 {
		return ErrCategoryHasBooks
	}
	if err := s.categories.Delete(ctx, id); err != nil {
		return categoryWriteError(err)
	}
	s.logger.Info("category deleted", zap.String("category_id", id))
	return nil
}

func categoryWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCategoryNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrCategoryExists
	default:
		return apperror.Internal(err)
	}
}
