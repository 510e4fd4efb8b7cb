package repository

import (
	"context"
	"strings"
	"time"

	"bukinn/internal/microservices/http-api/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// sortable columns accepted by BookFilter.SortBy
var bookSortColumns = map[string]string{
	"title":       "books.title",
	"publishedAt": "books.published_at",
	"totalReads":  "books.total_reads",
}

// BookFilter narrows List to published books. Zero fields do not filter.
type BookFilter struct {
	CategoryID     string
	AuthorID       string
	AuthorName     string // case-insensitive exact match
	Query          string // any whitespace token, ILIKE over title and description
	PublishedSince *time.Time
	SortBy         string // title, publishedAt or totalReads
	SortDesc       bool
	Offset         int
	Limit          int
}

type BookRepository interface {
	List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error)
	FindByID(ctx context.Context, id string) (*models.Book, error)
	FindWithContent(ctx context.Context, id string) (*models.Book, error)
	FindPublishedWithChapters(ctx context.Context, id string) (*models.Book, error)
	FindChapter(ctx context.Context, bookID string, order int) (*models.Chapter, error)
	Create(ctx context.Context, book *models.Book) error
	Update(ctx context.Context, book *models.Book, replaceChapters, replaceCategories bool) error
	SaveStatistics(ctx context.Context, book *models.Book) error
	Delete(ctx context.Context, id string) error
	IncrementReadCount(ctx context.Context, id string) error
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
	CountByCategory(ctx context.Context, categoryID string) (int64, error)
	ListIDs(ctx context.Context) ([]string, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func selectIDName(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

// chapter outline without the text
func chapterOutline(db *gorm.DB) *gorm.DB {
	return db.Select("id", "book_id", "title", "sort_order", "word_count", "estimated_reading_minutes").Order("sort_order ASC")
}

func (f BookFilter) scope(db *gorm.DB) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		q = q.Where("books.content_status = ?", models.StatusPublished)
		if f.CategoryID != "" {
			q = q.Where("books.id IN (?)", db.Table("book_categories").Select("book_id").Where("category_id = ?", f.CategoryID))
		}
		if f.AuthorID != "" {
			q = q.Where("books.author_id = ?", f.AuthorID)
		}
		if f.AuthorName != "" {
			q = q.Where("books.author_id IN (?)", db.Model(&models.Author{}).Select("id").Where("LOWER(name) = LOWER(?)", strings.TrimSpace(f.AuthorName)))
		}
		if tokens := strings.Fields(f.Query); len(tokens) > 0 {
			conds := make([]string, 0, len(tokens))
			args := make([]any, 0, 2*len(tokens))
			for _, tok := range tokens {
				like := "%" + escapeLike(tok) + "%"
				conds = append(conds, "books.title ILIKE ? OR books.description ILIKE ?")
				args = append(args, like, like)
			}
			q = q.Where("("+strings.Join(conds, " OR ")+")", args...)
		}
		if f.PublishedSince != nil {
			q = q.Where("books.published_at >= ?", *f.PublishedSince)
		}
		return q
	}
}

func (r *bookRepository) List(ctx context.Context, filter BookFilter) ([]models.Book, int64, error) {
	base := conn(ctx, r.db)

	var total int64
	if err := base.Model(&models.Book{}).Scopes(filter.scope(base)).Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	books := []models.Book{}
	if total == 0 {
		return books, 0, nil
	}

	column, ok := bookSortColumns[filter.SortBy]
	if !ok {
		column = bookSortColumns["publishedAt"]
	}
	err := base.Model(&models.Book{}).
		Scopes(filter.scope(base)).
		Preload("Author", selectIDName).
		Preload("Categories", selectIDName).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column, Raw: true}, Desc: filter.SortDesc}).
		Order("books.id").
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&books).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return books, total, nil
}

// FindByID loads any book with its chapter outline, author and categories.
func (r *bookRepository) FindByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := conn(ctx, r.db).
		Preload("Author", selectIDName).
		Preload("Categories", selectIDName).
		Preload("Chapters", chapterOutline).
		First(&book, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

// FindWithContent loads a book with full chapter text, for recomputing statistics.
func (r *bookRepository) FindWithContent(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := conn(ctx, r.db).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order ASC") }).
		First(&book, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *bookRepository) FindPublishedWithChapters(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := conn(ctx, r.db).
		Preload("Chapters", chapterOutline).
		Where("content_status = ?", models.StatusPublished).
		First(&book, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &book, nil
}

func (r *bookRepository) FindChapter(ctx context.Context, bookID string, order int) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := conn(ctx, r.db).Where("book_id = ? AND sort_order = ?", bookID, order).First(&chapter).Error; err != nil {
		return nil, translate(err)
	}
	return &chapter, nil
}

// Create inserts the book, its chapters and its category links. Categories
// must already exist.
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return translate(conn(ctx, r.db).Omit("Author", "Categories.*").Create(book).Error)
}

func (r *bookRepository) Update(ctx context.Context, book *models.Book, replaceChapters, replaceCategories bool) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(book).
			Omit(clause.Associations).
			Select("title", "description", "author_id", "cover_image", "content_status", "published_at",
				"total_word_count", "total_estimated_minutes", "updated_at").
			Updates(book)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if replaceChapters {
			if err := tx.Where("book_id = ?", book.ID).Delete(&models.Chapter{}).Error; err != nil {
				return err
			}
			for i := range book.Chapters {
				book.Chapters[i].ID = ""
				book.Chapters[i].BookID = book.ID
			}
			if len(book.Chapters) > 0 {
				if err := tx.Create(&book.Chapters).Error; err != nil {
					return err
				}
			}
		}

		if replaceCategories {
			if err := tx.Model(book).Omit("Categories.*").Association("Categories").Replace(book.Categories); err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

func (r *bookRepository) SaveStatistics(ctx context.Context, book *models.Book) error {
	err := conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Book{}).Where("id = ?", book.ID).Updates(map[string]any{
			"average_rating":          book.Statistics.AverageRating,
			"total_reviews":           book.Statistics.TotalReviews,
			"total_word_count":        book.Statistics.TotalWordCount,
			"total_estimated_minutes": book.Statistics.TotalEstimatedMinutes,
		}).Error; err != nil {
			return err
		}
		for _, ch := range book.Chapters {
			if err := tx.Model(&models.Chapter{}).Where("id = ?", ch.ID).Updates(map[string]any{
				"word_count":                ch.WordCount,
				"estimated_reading_minutes": ch.EstimatedReadingMinutes,
			}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return translate(err)
}

func (r *bookRepository) Delete(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Delete(&models.Book{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementReadCount bumps total_reads atomically in the database.
func (r *bookRepository) IncrementReadCount(ctx context.Context, id string) error {
	result := conn(ctx, r.db).Model(&models.Book{}).Where("id = ?", id).
		UpdateColumn("total_reads", gorm.Expr("total_reads + ?", 1))
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *bookRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Book{}).Where("author_id = ?", authorID).Count(&n).Error
	return n, translate(err)
}

func (r *bookRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Table("book_categories").Where("category_id = ?", categoryID).Count(&n).Error
	return n, translate(err)
}

// ListIDs returns every book id regardless of status, oldest first.
func (r *bookRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := conn(ctx, r.db).Model(&models.Book{}).Order("created_at").Pluck("id", &ids).Error
	return ids, translate(err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
