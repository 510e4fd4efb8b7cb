package models

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Progress is a user's reading position in one book. (user_id, book_id) is unique.
type Progress struct {
	ID                   string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID               string    `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_book" json:"userId"`
	BookID               string    `gorm:"type:uuid;not null;uniqueIndex:idx_progress_user_book" json:"bookId"`
	Book                 *Book     `gorm:"foreignKey:BookID" json:"book,omitempty"`
	LastChapterOrder     int       `gorm:"not null;default:1" json:"lastChapterOrder"`
	CompletionPercentage int       `gorm:"not null;default:0" json:"completionPercentage"`
	LastReadAt           time.Time `gorm:"not null" json:"lastReadAt"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

func (p *Progress) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}

// TableName overrides the table name used by Progress to `progress`
func (Progress) TableName() string {
	return "progress"
}

// NewProgress builds the record used before a user's first read of a book.
func NewProgress(userID, bookID string) *Progress {
	return &Progress{
		UserID:               userID,
		BookID:               bookID,
		LastChapterOrder:     1,
		CompletionPercentage: 0,
	}
}

// Apply moves the record to the chapter addressed by order. It reports
// false, leaving p untouched, when no such chapter exists. Moving backwards
// is allowed.
func (p *Progress) Apply(chapters []Chapter, order int, now time.Time) (*Chapter, bool) {
	var target *Chapter
	for i := range chapters {
		if chapters[i].Order == order {
			target = &chapters[i]
			break
		}
	}
	if target == nil {
		return nil, false
	}

	p.LastChapterOrder = order
	p.CompletionPercentage = CompletionPercentage(chapters, order)
	p.LastReadAt = now
	return target, true
}

// CompletionPercentage counts chapters at or below order, so gaps in the
// numbering do not skew the result.
func CompletionPercentage(chapters []Chapter, order int) int {
	if len(chapters) == 0 {
		return 0
	}
	read := 0
	for _, ch := range chapters {
		if ch.Order <= order {
			read++
		}
	}
	return int(math.Round(float64(read) / float64(len(chapters)) * 100))
}
