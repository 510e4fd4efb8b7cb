package service

import (
	"context"
	"errors"
	"time"

	"bukinn/internal/apperror"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"

	"go.uber.org/zap"
)

var (
	ErrBookNotFound     = apperror.NotFound("Book not found or not published")
	ErrChapterNotFound  = apperror.NotFound("Chapter not found")
	ErrProgressNotFound = apperror.NotFound("Progress not found")
	ErrProgressExists   = apperror.Conflict("Progress already exists for this book")
)

type ProgressService interface {
	Advance(ctx context.Context, userID, bookID string, chapterOrder int) (*models.Progress, error)
	Get(ctx context.Context, userID, bookID string) (*models.Progress, error)
	ListAll(ctx context.Context, userID string, page, limit int) ([]models.Progress, int64, error)
}

type progressService struct {
	progress repository.ProgressRepository
	books    repository.BookRepository
	users    repository.UserRepository
	tx       repository.Transactor
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

func NewProgressService(
	progress repository.ProgressRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	tx repository.Transactor,
	loc *time.Location,
	logger *zap.Logger,
) ProgressService {
	return &progressService{
		progress: progress,
		books:    books,
		users:    users,
		tx:       tx,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Advance moves the user's position in a published book to chapterOrder
// and rolls the chapter's reading time onto the user's statistics. The
// progress write and the rollup commit together.
func (s *progressService) Advance(ctx context.Context, userID, bookID string, chapterOrder int) (*models.Progress, error) {
	book, err := s.books.FindPublishedWithChapters(ctx, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, apperror.Internal(err)
	}

	progress, err := s.progress.Find(ctx, userID, bookID)
	if errors.Is(err, repository.ErrNotFound) {
		progress = models.NewProgress(userID, bookID)
	} else if err != nil {
		return nil, apperror.Internal(err)
	}

	now := s.now()
	chapter, ok := progress.Apply(book.Chapters, chapterOrder, now)
	if !ok {
		return nil, ErrChapterNotFound
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.progress.Save(ctx, progress); err != nil {
			return err
		}
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		user.Stats.Record(chapter.EstimatedReadingMinutes, now, s.loc)
		return s.users.SaveStats(ctx, userID, user.Stats)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrProgressExists
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrUserNotFound
		default:
			return nil, apperror.Internal(err)
		}
	}

	s.logger.Info("progress updated",
		zap.String("user_id", userID),
		zap.String("book_id", bookID),
		zap.String("book_title", book.Title),
		zap.Int("chapter_order", chapterOrder),
		zap.Int("completion_percentage", progress.CompletionPercentage))
	return progress, nil
}

func (s *progressService) Get(ctx context.Context, userID, bookID string) (*models.Progress, error) {
	progress, err := s.progress.FindWithBook(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProgressNotFound
		}
		return nil, apperror.Internal(err)
	}
	return progress, nil
}

// ListAll pages through the user's records, most recently read first.
func (s *progressService) ListAll(ctx context.Context, userID string, page, limit int) ([]models.Progress, int64, error) {
	page, limit = normalizePage(page, limit, 10, 100)
	list, total, err := s.progress.ListByUser(ctx, userID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, apperror.Internal(err)
	}
	return list, total, nil
}

// normalizePage applies the default limit and clamps to maxLimit.
func normalizePage(page, limit, defaultLimit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
