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
	ErrAuthorNotFound  = apperror.NotFound("Author not found")
	ErrAuthorHasBooks  = apperror.Validation("Cannot delete author with associated books")
	ErrAuthorNameTaken = apperror.Conflict("Author already exists")
)

type AuthorInput struct {
	Name         *string
	Bio          *string
	Email        *string
	Website      *string
	ProfileImage *string
}

type AuthorService interface {
	List(ctx context.Context, query string, page, limit int) ([]models.Author, int64, error)
	Get(ctx context.Context, id string) (*models.Author, error)
	Create(ctx context.Context, in AuthorInput) (*models.Author, error)
	Update(ctx context.Context, id string, in AuthorInput) (*models.Author, error)
	Delete(ctx context.Context, id string) error
}

type authorService struct {
	authors repository.AuthorRepository
	books   repository.BookRepository
	logger  *zap.Logger
}

func NewAuthorService(authors repository.AuthorRepository, books repository.BookRepository, logger *zap.Logger) AuthorService {
	return &authorService{authors: authors, books: books, logger: logger}
}

func (s *authorService) List(ctx context.Context, query string, page, limit int) ([]models.Author, int64, error) {
	page, limit = normalizePage(page, limit, 10, 100)
	authors, total, err := s.authors.List(ctx, query, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return authors, total, nil
}

// Get returns the author with their published books.
func (s *authorService) Get(ctx context.Context, id string) (*models.Author, error) {
	author, err := s.authors.FindWithBooks(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, apperror.Internal(err)
	}
	return author, nil
}

func (s *authorService) Create(ctx context.Context, in AuthorInput) (*models.Author, error) {
	author := &models.Author{}
	in.applyTo(author)
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, authorWriteError(err)
	}
	s.logger.Info("author created", zap.String("author_id", author.ID))
	return author, nil
}

func (s *authorService) Update(ctx context.Context, id string, in AuthorInput) (*models.Author, error) {
	author, err := s.authors.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, apperror.Internal(err)
	}
	in.applyTo(author)
	if err := s.authors.Update(ctx, author); err != nil {
		return nil, authorWriteError(err)
	}
	return author, nil
}

func (s *authorService) Delete(ctx context.Context, id string) error {
	n, err := s.books.CountByAuthor(ctx, id)
	if err != nil {
		return apperror.Internal(err)
	}
	if n > 0 {
		return ErrAuthorHasBooks
	}
	if err := s.authors.Delete(ctx, id); err != nil {
		return authorWriteError(err)
	}
	s.logger.Info("author deleted", zap.String("author_id", id))
	return nil
}

func (in AuthorInput) applyTo(a *models.Author) {
	if in.Name != nil {
		a.Name = *in.Name
	}
	if in.Bio != nil {
		a.Bio = *in.Bio
	}
	if in.Email != nil {
		a.Email = *in.Email
	}
	if in.Website != nil {
		a.Website = *in.Website
	}
	if in.ProfileImage != nil {
		a.ProfileImage = *in.ProfileImage
	}
}

func authorWriteError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrAuthorNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAuthorNameTaken
	default:
		return apperror.Internal(err)
	}
}
