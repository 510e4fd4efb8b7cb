package models

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"

	// WordsPerMinute is the reading speed behind estimated reading times.
	WordsPerMinute = 200
)

var ErrInvalidRating = errors.New("rating must be between 0 and 5")

type Book struct {
	ID            string         `gorm:"primaryKey;type:uuid" json:"id"`
	Title         string         `gorm:"not null" json:"title"`
	Description   string         `gorm:"not null;default:''" json:"description"`
	AuthorID      *string        `gorm:"type:uuid;index" json:"-"`
	Author        *Author        `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Categories    []Category     `gorm:"many2many:book_categories;constraint:OnDelete:CASCADE;" json:"categories"`
	CoverImage    string         `json:"coverImage,omitempty"`
	ContentStatus string         `gorm:"not null;default:'draft'" json:"contentStatus"`
	Chapters      []Chapter      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE;" json:"chapters,omitempty"`
	Statistics    BookStatistics `gorm:"embedded" json:"statistics"`
	PublishedAt   *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return
}

func (Book) TableName() string {
	return "books"
}

// BookStatistics are derived or counted, never written by clients.
type BookStatistics struct {
	TotalReads            int     `gorm:"not null;default:0" json:"totalReads"`
	AverageRating         float64 `gorm:"type:numeric(3,2);not null;default:0" json:"averageRating"`
	TotalReviews          int     `gorm:"not null;default:0" json:"totalReviews"`
	TotalWordCount        int     `gorm:"not null;default:0" json:"totalWordCount"`
	TotalEstimatedMinutes int     `gorm:"not null;default:0" json:"totalEstimatedReadingTime"`
}

type Chapter struct {
	ID                      string `gorm:"primaryKey;type:uuid" json:"id,omitempty"`
	BookID                  string `gorm:"type:uuid;not null;uniqueIndex:idx_chapters_book_order" json:"-"`
	Title                   string `gorm:"not null" json:"title"`
	Content                 string `gorm:"not null" json:"content,omitempty"`
	Order                   int    `gorm:"column:sort_order;not null;uniqueIndex:idx_chapters_book_order" json:"order"`
	WordCount               int    `gorm:"not null;default:0" json:"wordCount,omitempty"`
	EstimatedReadingMinutes int    `gorm:"not null;default:0" json:"estimatedReadingTime,omitempty"`
}

func (c *Chapter) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return
}

func (Chapter) TableName() string {
	return "chapters"
}

func (b *Book) IsPublished() bool {
	return b.ContentStatus == StatusPublished
}

// ChapterByOrder finds the chapter addressed by order.
func (b *Book) ChapterByOrder(order int) (*Chapter, bool) {
	for i := range b.Chapters {
		if b.Chapters[i].Order == order {
			return &b.Chapters[i], true
		}
	}
	return nil, false
}

// DeriveStatistics recomputes chapter word counts, reading times and the
// book totals from chapter content. Call it after every content change.
func DeriveStatistics(b *Book) {
	totalWords, totalMinutes := 0, 0
	for i := range b.Chapters {
		ch := &b.Chapters[i]
		ch.WordCount = CountWords(ch.Content)
		ch.EstimatedReadingMinutes = EstimateMinutes(ch.WordCount)
		totalWords += ch.WordCount
		totalMinutes += ch.EstimatedReadingMinutes
	}
	b.Statistics.TotalWordCount = totalWords
	b.Statistics.TotalEstimatedMinutes = totalMinutes
}

func CountWords(content string) int {
	return len(strings.Fields(content))
}

// EstimateMinutes rounds up, so any non-empty chapter takes at least a minute.
func EstimateMinutes(words int) int {
	if words <= 0 {
		return 0
	}
	return (words + WordsPerMinute - 1) / WordsPerMinute
}

// UpdateAverageRating folds a rating into the running average. When
// isNewReview is false the rating replaces one equal to the current average.
func (b *Book) UpdateAverageRating(rating float64, isNewReview bool) error {
	if rating < 0 || rating > 5 {
		return ErrInvalidRating
	}
	s := &b.Statistics
	totalReviews := s.TotalReviews
	if isNewReview {
		totalReviews++
	}
	currentTotal := s.AverageRating * float64(s.TotalReviews)
	var newTotal float64
	if isNewReview {
		newTotal = currentTotal + rating
	} else {
		newTotal = currentTotal - s.AverageRating + rating
	}

	if totalReviews > 0 {
		s.AverageRating = newTotal / float64(totalReviews)
	} else {
		s.AverageRating = 0
	}
	s.TotalReviews = totalReviews
	return nil
}

// MarkPublished stamps PublishedAt the first time a book goes live.
func (b *Book) MarkPublished(now time.Time) {
	if b.IsPublished() && b.PublishedAt == nil {
		t := now
		b.PublishedAt = &t
	}
}
