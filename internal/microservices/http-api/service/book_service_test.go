package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"bukinn/internal/apperror"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type BookServiceSuite struct {
	suite.Suite
	ctx        context.Context
	books      *MockBookRepository
	authors    *MockAuthorRepository
	categories *MockCategoryRepository
	covers     *MockCoverStore
	trending   *MockTrendingCache
	svc        *bookService
	now        time.Time
}

func (s *BookServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.books = new(MockBookRepository)
	s.authors = new(MockAuthorRepository)
	s.categories = new(MockCategoryRepository)
	s.covers = new(MockCoverStore)
	s.trending = new(MockTrendingCache)
	s.now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.svc = NewBookService(s.books, s.authors, s.categories, s.covers, s.trending, zap.NewNop()).(*bookService)
	s.svc.now = fixedClock(s.now)
}

func (s *BookServiceSuite) TearDownTest() {
	s.books.AssertExpectations(s.T())
	s.authors.AssertExpectations(s.T())
	s.categories.AssertExpectations(s.T())
	s.covers.AssertExpectations(s.T())
	s.trending.AssertExpectations(s.T())
}

func TestBookServiceSuite(t *testing.T) {
	suite.Run(t, new(BookServiceSuite))
}

func strPtr(s string) *string { return &s }

func (s *BookServiceSuite) TestListDefaults() {
	s.books.On("List", s.ctx, repository.BookFilter{SortBy: "publishedAt", SortDesc: true, Offset: 0, Limit: 10}).
		Return([]models.Book{{ID: "b1"}}, int64(1), nil)

	books, total, err := s.svc.List(s.ctx, BookListQuery{})

	s.Require().NoError(err)
	s.Len(books, 1)
	s.Equal(int64(1), total)
}

func (s *BookServiceSuite) TestListAscendingByTitle() {
	s.books.On("List", s.ctx, repository.BookFilter{CategoryID: "c1", SortBy: "title", SortDesc: false, Offset: 20, Limit: 20}).
		Return([]models.Book{}, int64(0), nil)

	_, _, err := s.svc.List(s.ctx, BookListQuery{Page: 2, Limit: 20, CategoryID: "c1", SortBy: "title", SortOrder: "asc"})

	s.NoError(err)
}

func (s *BookServiceSuite) TestGetMissing() {
	s.books.On("FindByID", s.ctx, "nope").Return(nil, repository.ErrNotFound)

	_, err := s.svc.Get(s.ctx, "nope")

	s.ErrorIs(err, ErrBookMissing)
}

func (s *BookServiceSuite) TestChapterCountsRead() {
	chapter := &models.Chapter{Title: "One", Order: 1, Content: "text"}
	s.books.On("FindPublishedWithChapters", s.ctx, "b1").Return(publishedBook(1, 2), nil)
	s.books.On("FindChapter", s.ctx, "b1", 1).Return(chapter, nil)
	s.books.On("IncrementReadCount", s.ctx, "b1").Return(nil)

	got, err := s.svc.Chapter(s.ctx, "b1", 1)

	s.Require().NoError(err)
	s.Equal("text", got.Content)
}

func (s *BookServiceSuite) TestChapterOfDraftBook() {
	s.books.On("FindPublishedWithChapters", s.ctx, "b1").Return(nil, repository.ErrNotFound)

	_, err := s.svc.Chapter(s.ctx, "b1", 1)

	s.ErrorIs(err, ErrBookNotFound)
	s.books.AssertNotCalled(s.T(), "IncrementReadCount", mock.Anything, mock.Anything)
}

func (s *BookServiceSuite) TestChapterMissing() {
	s.books.On("FindPublishedWithChapters", s.ctx, "b1").Return(publishedBook(1), nil)
	s.books.On("FindChapter", s.ctx, "b1", 7).Return(nil, repository.ErrNotFound)

	_, err := s.svc.Chapter(s.ctx, "b1", 7)

	s.ErrorIs(err, ErrChapterNotFound)
}

func (s *BookServiceSuite) TestSearchRequiresTerm() {
	_, _, err := s.svc.Search(s.ctx, BookSearchQuery{CategoryID: "c1"})

	s.ErrorIs(err, ErrSearchTermRequired)
}

func (s *BookServiceSuite) TestSearchByAuthorName() {
	s.books.On("List", s.ctx, mock.MatchedBy(func(f repository.BookFilter) bool {
		return f.AuthorName == "Ruskin Bond" && f.Query == "" && f.Limit == 10
	})).Return([]models.Book{}, int64(0), nil)

	books, total, err := s.svc.Search(s.ctx, BookSearchQuery{Author: "Ruskin Bond"})

	s.NoError(err)
	s.Empty(books)
	s.Zero(total)
}

func (s *BookServiceSuite) TestTrendingCacheHit() {
	cached := []models.Book{{ID: "b1"}}
	s.trending.On("Get", s.ctx, "week", 10).Return(cached, true, nil)

	books, err := s.svc.Trending(s.ctx, "", 0)

	s.Require().NoError(err)
	s.Equal(cached, books)
	s.books.AssertNotCalled(s.T(), "List", mock.Anything, mock.Anything)
}

func (s *BookServiceSuite) TestTrendingCacheMissQueriesWindow() {
	since := s.now.AddDate(0, -1, 0)
	found := []models.Book{{ID: "b2"}}
	s.trending.On("Get", s.ctx, "month", 50).Return(nil, false, nil)
	s.books.On("List", s.ctx, mock.MatchedBy(func(f repository.BookFilter) bool {
		return f.PublishedSince != nil && f.PublishedSince.Equal(since) && f.SortBy == "totalReads" && f.SortDesc && f.Limit == 50
	})).Return(found, int64(1), nil)
	s.trending.On("Set", s.ctx, "month", 50, found).Return(nil)

	books, err := s.svc.Trending(s.ctx, "month", 80)

	s.Require().NoError(err)
	s.Equal(found, books)
}

func (s *BookServiceSuite) TestTrendingCacheOutageFallsThrough() {
	s.trending.On("Get", s.ctx, "day", 10).Return(nil, false, errors.New("redis down"))
	s.books.On("List", s.ctx, mock.Anything).Return([]models.Book{}, int64(0), nil)
	s.trending.On("Set", s.ctx, "day", 10, []models.Book{}).Return(errors.New("redis down"))

	_, err := s.svc.Trending(s.ctx, "day", 10)

	s.NoError(err)
}

func (s *BookServiceSuite) TestTrendingInvalidPeriod() {
	_, err := s.svc.Trending(s.ctx, "year", 10)

	s.ErrorIs(err, ErrInvalidPeriod)
}

func (s *BookServiceSuite) TestSuggestions() {
	_, err := s.svc.Suggestions(s.ctx, "", 5)
	s.ErrorIs(err, ErrAuthorIDRequired)

	s.books.On("List", s.ctx, repository.BookFilter{AuthorID: "a1", SortBy: "totalReads", SortDesc: true, Limit: 5}).
		Return([]models.Book{{ID: "b1"}}, int64(1), nil)
	books, err := s.svc.Suggestions(s.ctx, "a1", 0)
	s.NoError(err)
	s.Len(books, 1)
}

func (s *BookServiceSuite) TestCreateDerivesStatisticsAndUploadsCover() {
	cover := &CoverFile{Name: "cover.png", Data: []byte("png")}
	s.authors.On("FindByID", s.ctx, "a1").Return(&models.Author{ID: "a1"}, nil)
	s.categories.On("FindByIDs", s.ctx, []string{"c1", "c2"}).Return([]models.Category{{ID: "c1"}, {ID: "c2"}}, nil)
	s.covers.On("Upload", s.ctx, "cover.png", cover.Data).Return("https://cdn/books/covers/1.jpg", nil)
	s.books.On("Create", s.ctx, mock.MatchedBy(func(b *models.Book) bool {
		return b.Statistics.TotalWordCount == 403 &&
			b.Statistics.TotalEstimatedMinutes == 3 &&
			b.CoverImage == "https://cdn/books/covers/1.jpg" &&
			b.PublishedAt != nil && b.PublishedAt.Equal(s.now) &&
			*b.AuthorID == "a1" && len(b.Categories) == 2
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Book).ID = "b1"
	}).Return(nil)
	s.trending.On("Invalidate", s.ctx).Return(nil)
	s.books.On("FindByID", s.ctx, "b1").Return(&models.Book{ID: "b1"}, nil)

	book, err := s.svc.Create(s.ctx, BookInput{
		Title:         strPtr("Night Train"),
		Description:   strPtr("A long journey"),
		AuthorID:      strPtr("a1"),
		CategoryIDs:   []string{"c1", "c2", "c1"},
		ContentStatus: strPtr(models.StatusPublished),
		Chapters: []ChapterInput{
			{Title: "One", Order: 1, Content: strings.Repeat("w ", 400)},
			{Title: "Two", Order: 2, Content: "a b c"},
		},
	}, cover)

	s.Require().NoError(err)
	s.Equal("b1", book.ID)
}

func (s *BookServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(s.ctx, BookInput{Title: strPtr("T")}, nil)
	s.ErrorIs(err, ErrChaptersRequired)

	_, err = s.svc.Create(s.ctx, BookInput{Title: strPtr("T"), Chapters: []ChapterInput{{Order: 1}, {Order: 1}}}, nil)
	s.ErrorIs(err, ErrDuplicateChapter)

	s.authors.On("FindByID", s.ctx, "ghost").Return(nil, repository.ErrNotFound)
	_, err = s.svc.Create(s.ctx, BookInput{AuthorID: strPtr("ghost"), Chapters: []ChapterInput{{Order: 1}}}, nil)
	s.ErrorIs(err, ErrUnknownAuthor)

	s.categories.On("FindByIDs", s.ctx, []string{"c1", "c9"}).Return([]models.Category{{ID: "c1"}}, nil)
	_, err = s.svc.Create(s.ctx, BookInput{CategoryIDs: []string{"c1", "c9"}, Chapters: []ChapterInput{{Order: 1}}}, nil)
	s.ErrorIs(err, ErrUnknownCategory)

	_, err = s.svc.Create(s.ctx, BookInput{ContentStatus: strPtr("live"), Chapters: []ChapterInput{{Order: 1}}}, nil)
	s.ErrorIs(err, ErrInvalidStatus)
}

func (s *BookServiceSuite) TestCreateRemovesCoverWhenWriteFails() {
	cover := &CoverFile{Name: "c.jpg", Data: []byte("jpg")}
	s.covers.On("Upload", s.ctx, "c.jpg", cover.Data).Return("https://cdn/new.jpg", nil)
	s.books.On("Create", s.ctx, mock.Anything).Return(errors.New("db down"))
	s.covers.On("Remove", s.ctx, "https://cdn/new.jpg").Return()

	_, err := s.svc.Create(s.ctx, BookInput{Title: strPtr("T"), Chapters: []ChapterInput{{Order: 1, Content: "x"}}}, cover)

	s.ErrorIs(err, apperror.ErrInternal)
}

func (s *BookServiceSuite) TestUpdateReplacesCoverAndKeepsChapters() {
	existing := &models.Book{ID: "b1", Title: "Old", CoverImage: "https://cdn/old.jpg", ContentStatus: models.StatusDraft,
		Chapters: []models.Chapter{{Order: 1, Title: "One"}}}
	cover := &CoverFile{Name: "n.jpg", Data: []byte("jpg")}
	s.books.On("FindByID", s.ctx, "b1").Return(existing, nil)
	s.covers.On("Upload", s.ctx, "n.jpg", cover.Data).Return("https://cdn/new.jpg", nil)
	s.books.On("Update", s.ctx, mock.MatchedBy(func(b *models.Book) bool {
		return b.Title == "New" && b.CoverImage == "https://cdn/new.jpg"
	}), false, false).Return(nil)
	s.covers.On("Remove", s.ctx, "https://cdn/old.jpg").Return()
	s.trending.On("Invalidate", s.ctx).Return(nil)

	book, err := s.svc.Update(s.ctx, "b1", BookInput{Title: strPtr("New")}, cover)

	s.Require().NoError(err)
	s.Equal("New", book.Title)
}

func (s *BookServiceSuite) TestUpdateRejectsEmptyChapterList() {
	s.books.On("FindByID", s.ctx, "b1").Return(&models.Book{ID: "b1"}, nil)

	_, err := s.svc.Update(s.ctx, "b1", BookInput{Chapters: []ChapterInput{}}, nil)

	s.ErrorIs(err, ErrChaptersRequired)
}

func (s *BookServiceSuite) TestDeleteRemovesCover() {
	s.books.On("FindByID", s.ctx, "b1").Return(&models.Book{ID: "b1", CoverImage: "https://cdn/c.jpg"}, nil)
	s.books.On("Delete", s.ctx, "b1").Return(nil)
	s.covers.On("Remove", s.ctx, "https://cdn/c.jpg").Return()
	s.trending.On("Invalidate", s.ctx).Return(errors.New("redis down"))

	s.NoError(s.svc.Delete(s.ctx, "b1"))
}

func (s *BookServiceSuite) TestUpdateAverageRating() {
	s.books.On("FindByID", s.ctx, "b1").Return(&models.Book{ID: "b1", Statistics: models.BookStatistics{AverageRating: 4, TotalReviews: 1}}, nil)
	s.books.On("SaveStatistics", s.ctx, mock.MatchedBy(func(b *models.Book) bool {
		return b.ID == "b1" && b.Statistics.TotalReviews == 2 && b.Statistics.AverageRating == 3 && b.Chapters == nil
	})).Return(nil)

	book, err := s.svc.UpdateAverageRating(s.ctx, "b1", 2, true)

	s.Require().NoError(err)
	s.InDelta(3.0, book.Statistics.AverageRating, 1e-9)
}

func (s *BookServiceSuite) TestUpdateAverageRatingOutOfRange() {
	s.books.On("FindByID", s.ctx, "b1").Return(&models.Book{ID: "b1"}, nil)

	_, err := s.svc.UpdateAverageRating(s.ctx, "b1", 6, true)

	s.ErrorIs(err, ErrRatingOutOfRange)
}

func (s *BookServiceSuite) TestRecompute() {
	s.books.On("FindWithContent", s.ctx, "b1").Return(&models.Book{ID: "b1", Chapters: []models.Chapter{
		{ID: "ch1", Order: 1, Content: strings.Repeat("w ", 250)},
	}}, nil)
	s.books.On("SaveStatistics", s.ctx, mock.MatchedBy(func(b *models.Book) bool {
		return b.Statistics.TotalWordCount == 250 && b.Chapters[0].EstimatedReadingMinutes == 2
	})).Return(nil)

	book, err := s.svc.Recompute(s.ctx, "b1")

	s.Require().NoError(err)
	s.Equal(2, book.Statistics.TotalEstimatedMinutes)
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2024, 3, 31, 10, 0, 0, 0, time.UTC)

	day, ok := periodStart("day", now)
	require.True(t, ok)
	assert.Equal(t, now.Add(-24*time.Hour), day)

	week, _ := periodStart("week", now)
	assert.Equal(t, time.Date(2024, 3, 24, 10, 0, 0, 0, time.UTC), week)

	month, _ := periodStart("month", now)
	assert.Equal(t, time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC), month) // Feb 31 normalizes

	_, ok = periodStart("decade", now)
	assert.False(t, ok)
}

func TestBookServiceWithoutStorageOrCache(t *testing.T) {
	ctx := context.Background()
	books := new(MockBookRepository)
	books.On("List", ctx, mock.AnythingOfType("repository.BookFilter")).
		Return([]models.Book{{ID: "b1"}}, int64(1), nil)
	svc := NewBookService(books, new(MockAuthorRepository), new(MockCategoryRepository), nil, nil, zap.NewNop())

	trending, err := svc.Trending(ctx, "week", 5)
	require.NoError(t, err)
	assert.Len(t, trending, 1)

	_, err = svc.Create(ctx, BookInput{
		Title:    strPtr("Night Train"),
		Chapters: []ChapterInput{{Title: "One", Order: 1, Content: "a b c"}},
	}, &CoverFile{Name: "cover.png", Data: []byte("png")})
	assert.ErrorIs(t, err, apperror.ErrInternal)
	books.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	books.AssertExpectations(t)
}
