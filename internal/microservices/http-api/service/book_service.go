package service

import (
	"context"
	"errors"
	"time"

	"bukinn/internal/apperror"
	"bukinn/internal/cache"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"

	"go.uber.org/zap"
)

var (
	ErrBookMissing        = apperror.NotFound("Book not found")
	ErrSearchTermRequired = apperror.Validation("Search query or author is required")
	ErrAuthorIDRequired   = apperror.ValidationField("authorId", "Author ID is required")
	ErrInvalidPeriod      = apperror.ValidationField("period", "Period must be one of day, week, month")
	ErrChaptersRequired   = apperror.ValidationField("chapters", "At least one chapter is required")
	ErrDuplicateChapter   = apperror.ValidationField("chapters", "Chapter orders must be unique")
	ErrUnknownAuthor      = apperror.ValidationField("authorId", "Author does not exist")
	ErrUnknownCategory    = apperror.ValidationField("categoryIds", "One or more categories do not exist")
	ErrInvalidStatus      = apperror.ValidationField("contentStatus", "Content status must be draft, published or archived")
	ErrRatingOutOfRange   = apperror.ValidationField("rating", "Rating must be between 0 and 5")

	errNoCoverStore = errors.New("no cover store configured")
)

// CoverStore stores processed cover images and removes them best-effort.
type CoverStore interface {
	Upload(ctx context.Context, originalName string, data []byte) (string, error)
	Remove(ctx context.Context, url string)
}

type BookListQuery struct {
	Page       int
	Limit      int
	CategoryID string
	SortBy     string
	SortOrder  string
}

type BookSearchQuery struct {
	Query      string
	Author     string
	CategoryID string
	Page       int
	Limit      int
}

type ChapterInput struct {
	Title   string
	Content string
	Order   int
}

// BookInput carries admin writes. Nil fields are left unchanged on update;
// a nil Chapters or CategoryIDs slice keeps the current list.
type BookInput struct {
	Title         *string
	Description   *string
	AuthorID      *string
	CategoryIDs   []string
	ContentStatus *string
	Chapters      []ChapterInput
}

type CoverFile struct {
	Name string
	Data []byte
}

type BookService interface {
	List(ctx context.Context, q BookListQuery) ([]models.Book, int64, error)
	Get(ctx context.Context, id string) (*models.Book, error)
	Chapter(ctx context.Context, bookID string, order int) (*models.Chapter, error)
	Search(ctx context.Context, q BookSearchQuery) ([]models.Book, int64, error)
	Trending(ctx context.Context, period string, limit int) ([]models.Book, error)
	Suggestions(ctx context.Context, authorID string, limit int) ([]models.Book, error)
	Create(ctx context.Context, in BookInput, cover *CoverFile) (*models.Book, error)
	Update(ctx context.Context, id string, in BookInput, cover *CoverFile) (*models.Book, error)
	Delete(ctx context.Context, id string) error
	UpdateAverageRating(ctx context.Context, id string, rating float64, isNewReview bool) (*models.Book, error)
	Recompute(ctx context.Context, id string) (*models.Book, error)
}

// NoCoverStore rejects uploads. It serves callers that run without object storage.
type NoCoverStore struct{}

func (NoCoverStore) Upload(context.Context, string, []byte) (string, error) {
	return "", apperror.Internal(errNoCoverStore)
}

func (NoCoverStore) Remove(context.Context, string) {}

type bookService struct {
	books      repository.BookRepository
	authors    repository.AuthorRepository
	categories repository.CategoryRepository
	covers     CoverStore
	trending   cache.TrendingCache
	logger     *zap.Logger
	now        func() time.Time
}

func NewBookService(
	books repository.BookRepository,
	authors repository.AuthorRepository,
	categories repository.CategoryRepository,
	covers CoverStore,
	trending cache.TrendingCache,
	logger *zap.Logger,
) BookService {
	if covers == nil {
		covers = NoCoverStore{}
	}
	if trending == nil {
		trending = cache.NopTrendingCache{}
	}
	return &bookService{
		books:      books,
		authors:    authors,
		categories: categories,
		covers:     covers,
		trending:   trending,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *bookService) List(ctx context.Context, q BookListQuery) ([]models.Book, int64, error) {
	page, limit := normalizePage(q.Page, q.Limit, 10, 100)
	sortBy := q.SortBy
	if sortBy == "" {
		sortBy = "publishedAt"
	}
	books, total, err := s.books.List(ctx, repository.BookFilter{
		CategoryID: q.CategoryID,
		SortBy:     sortBy,
		SortDesc:   q.SortOrder != "asc",
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return books, total, nil
}

func (s *bookService) Get(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookMissing
		}
		return nil, apperror.Internal(err)
	}
	return book, nil
}

// Chapter returns a full chapter of a published book and counts the read.
func (s *bookService) Chapter(ctx context.Context, bookID string, order int) (*models.Chapter, error) {
	if _, err := s.books.FindPublishedWithChapters(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, apperror.Internal(err)
	}

	chapter, err := s.books.FindChapter(ctx, bookID, order)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrChapterNotFound
		}
		return nil, apperror.Internal(err)
	}

	if err := s.books.IncrementReadCount(ctx, bookID); err != nil {
		return nil, apperror.Internal(err)
	}
	return chapter, nil
}

func (s *bookService) Search(ctx context.Context, q BookSearchQuery) ([]models.Book, int64, error) {
	if q.Query == "" && q.Author == "" {
		return nil, 0, ErrSearchTermRequired
	}
	page, limit := normalizePage(q.Page, q.Limit, 10, 100)
	books, total, err := s.books.List(ctx, repository.BookFilter{
		Query:      q.Query,
		AuthorName: q.Author,
		CategoryID: q.CategoryID,
		SortBy:     "publishedAt",
		SortDesc:   true,
		Offset:     (page - 1) * limit,
		Limit:      limit,
	})
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return books, total, nil
}

func periodStart(period string, now time.Time) (time.Time, bool) {
	switch period {
	case "day":
		return now.AddDate(0, 0, -1), true
	case "week":
		return now.AddDate(0, 0, -7), true
	case "month":
		return now.AddDate(0, -1, 0), true
	}
	return time.Time{}, false
}

func (s *bookService) Trending(ctx context.Context, period string, limit int) ([]models.Book, error) {
	if period == "" {
		period = "week"
	}
	since, ok := periodStart(period, s.now())
	if !ok {
		return nil, ErrInvalidPeriod
	}
	_, limit = normalizePage(1, limit, 10, 50)

	cached, hit, err := s.trending.Get(ctx, period, limit)
	if err != nil {
		s.logger.Warn("trending cache read failed", zap.Error(err))
	} else if hit {
		return cached, nil
	}

	books, _, err := s.books.List(ctx, repository.BookFilter{
		PublishedSince: &since,
		SortBy:         "totalReads",
		SortDesc:       true,
		Limit:          limit,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	if err := s.trending.Set(ctx, period, limit, books); err != nil {
		s.logger.Warn("trending cache write failed", zap.Error(err))
	}
	return books, nil
}

func (s *bookService) Suggestions(ctx context.Context, authorID string, limit int) ([]models.Book, error) {
	if authorID == "" {
		return nil, ErrAuthorIDRequired
	}
	_, limit = normalizePage(1, limit, 5, 50)
	books, _, err := s.books.List(ctx, repository.BookFilter{
		AuthorID: authorID,
		SortBy:   "totalReads",
		SortDesc: true,
		Limit:    limit,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return books, nil
}

func (s *bookService) Create(ctx context.Context, in BookInput, cover *CoverFile) (*models.Book, error) {
	if len(in.Chapters) == 0 {
		return nil, ErrChaptersRequired
	}

	book := &models.Book{ContentStatus: models.StatusDraft}
	if err := s.apply(ctx, book, in); err != nil {
		return nil, err
	}

	if cover != nil {
		url, err := s.covers.Upload(ctx, cover.Name, cover.Data)
		if err != nil {
			return nil, err
		}
		book.CoverImage = url
	}

	if err := s.books.Create(ctx, book); err != nil {
		if cover != nil {
			s.covers.Remove(ctx, book.CoverImage)
		}
		return nil, writeError(err)
	}

	s.invalidateTrending(ctx)
	s.logger.Info("book created", zap.String("book_id", book.ID), zap.String("title", book.Title))
	return s.Get(ctx, book.ID)
}

func (s *bookService) Update(ctx context.Context, id string, in BookInput, cover *CoverFile) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Chapters != nil && len(in.Chapters) == 0 {
		return nil, ErrChaptersRequired
	}
	if err := s.apply(ctx, book, in); err != nil {
		return nil, err
	}

	oldCover := ""
	if cover != nil {
		url, err := s.covers.Upload(ctx, cover.Name, cover.Data)
		if err != nil {
			return nil, err
		}
		oldCover = book.CoverImage
		book.CoverImage = url
	}

	if err := s.books.Update(ctx, book, in.Chapters != nil, in.CategoryIDs != nil); err != nil {
		if cover != nil {
			s.covers.Remove(ctx, book.CoverImage)
		}
		return nil, writeError(err)
	}
	if oldCover != "" {
		s.covers.Remove(ctx, oldCover)
	}

	s.invalidateTrending(ctx)
	s.logger.Info("book updated", zap.String("book_id", book.ID))
	return s.Get(ctx, book.ID)
}

// apply copies validated input onto book and re-derives statistics when
// the chapter list changes.
func (s *bookService) apply(ctx context.Context, book *models.Book, in BookInput) error {
	if in.Title != nil {
		book.Title = *in.Title
	}
	if in.Description != nil {
		book.Description = *in.Description
	}

	if in.ContentStatus != nil {
		switch *in.ContentStatus {
		case models.StatusDraft, models.StatusPublished, models.StatusArchived:
			book.ContentStatus = *in.ContentStatus
		default:
			return ErrInvalidStatus
		}
	}
	book.MarkPublished(s.now())

	if in.AuthorID != nil {
		if *in.AuthorID == "" {
			book.AuthorID = nil
			book.Author = nil
		} else {
			author, err := s.authors.FindByID(ctx, *in.AuthorID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return ErrUnknownAuthor
				}
				return apperror.Internal(err)
			}
			book.AuthorID = &author.ID
			book.Author = nil
		}
	}

	if in.CategoryIDs != nil {
		categories, err := s.resolveCategories(ctx, in.CategoryIDs)
		if err != nil {
			return err
		}
		book.Categories = categories
	}

	if in.Chapters != nil {
		seen := make(map[int]struct{}, len(in.Chapters))
		chapters := make([]models.Chapter, 0, len(in.Chapters))
		for _, ch := range in.Chapters {
			if _, dup := seen[ch.Order]; dup {
				return ErrDuplicateChapter
			}
			seen[ch.Order] = struct{}{}
			chapters = append(chapters, models.Chapter{BookID: book.ID, Title: ch.Title, Content: ch.Content, Order: ch.Order})
		}
		book.Chapters = chapters
		models.DeriveStatistics(book)
	}
	return nil
}

func (s *bookService) resolveCategories(ctx context.Context, ids []string) ([]models.Category, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return []models.Category{}, nil
	}

	categories, err := s.categories.FindByIDs(ctx, unique)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if len(categories) != len(unique) {
		return nil, ErrUnknownCategory
	}
	return categories, nil
}

func (s *bookService) Delete(ctx context.Context, id string) error {
	book, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.books.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBookMissing
		}
		return apperror.Internal(err)
	}
	if book.CoverImage != "" {
		s.covers.Remove(ctx, book.CoverImage)
	}
	s.invalidateTrending(ctx)
	s.logger.Info("book deleted", zap.String("book_id", id))
	return nil
}

func (s *bookService) UpdateAverageRating(ctx context.Context, id string, rating float64, isNewReview bool) (*models.Book, error) {
	book, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := book.UpdateAverageRating(rating, isNewReview); err != nil {
		if errors.Is(err, models.ErrInvalidRating) {
			return nil, ErrRatingOutOfRange
		}
		return nil, apperror.Internal(err)
	}
	// chapters are untouched, only the book row is written
	if err := s.books.SaveStatistics(ctx, &models.Book{ID: book.ID, Statistics: book.Statistics}); err != nil {
		return nil, writeError(err)
	}
	return book, nil
}

// Recompute re-derives word counts and reading times from stored content.
func (s *bookService) Recompute(ctx context.Context, id string) (*models.Book, error) {
	book, err := s.books.FindWithContent(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookMissing
		}
		return nil, apperror.Internal(err)
	}
	models.DeriveStatistics(book)
	if err := s.books.SaveStatistics(ctx, book); err != nil {
		return nil, writeError(err)
	}
	return book, nil
}

func (s *bookService) invalidateTrending(ctx context.Context) {
	if err := s.trending.Invalidate(ctx); err != nil {
		s.logger.Warn("trending cache invalidation failed", zap.Error(err))
	}
}

// writeError maps repository write failures to client errors.
func writeError(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return apperror.Conflict("Resource already exists")
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound("Resource not found")
	default:
		return apperror.Internal(err)
	}
}
