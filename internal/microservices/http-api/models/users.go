package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	PremiumFree    = "free"
	PremiumPremium = "premium"
)

type User struct {
	ID                string       `gorm:"primaryKey;type:uuid" json:"id"`
	PhoneNumber       string       `gorm:"uniqueIndex;not null" json:"phoneNumber"`
	Name              string       `gorm:"not null" json:"name"`
	Email             *string      `json:"email,omitempty"`
	IsActive          bool         `gorm:"not null;default:false" json:"isActive"`
	Role              string       `gorm:"not null;default:'user'" json:"role"` // "user" or "admin"
	PremiumStatus     string       `gorm:"not null;default:'free'" json:"premiumStatus"`
	PreferredLanguage string       `gorm:"not null;default:'en'" json:"preferredLanguage"`
	Stats             ReadingStats `gorm:"embedded" json:"stats"`
	RefreshTokenHash  *string      `json:"-"` // sha256 of the only valid renewal token
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// BeforeCreate hook to set UUID before creating a User
func (user *User) BeforeCreate(tx *gorm.DB) (err error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	return
}

func (User) TableName() string {
	return "users"
}

func (user *User) IsAdmin() bool {
	return user.Role == RoleAdmin
}

func (user *User) IsPremium() bool {
	return user.PremiumStatus == PremiumPremium
}

// ReadingStats is the per-user rollup maintained by progress updates.
type ReadingStats struct {
	TotalBooksRead      int        `gorm:"not null;default:0" json:"totalBooksRead"`
	TotalReadingMinutes int        `gorm:"not null;default:0" json:"totalReadingTime"`
	CurrentStreak       int        `gorm:"not null;default:0" json:"currentStreak"`
	LastReadDate        *time.Time `json:"lastReadDate,omitempty"`
}

// Record adds minutes of reading done at now and moves the day streak.
// Day boundaries are taken in loc. A read on the day after the last read
// extends the streak, a second read on the same day leaves it alone, and
// anything else starts a new streak of 1.
func (s *ReadingStats) Record(minutes int, now time.Time, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	s.TotalReadingMinutes += minutes

	if s.LastReadDate == nil {
		s.CurrentStreak = 1
	} else {
		switch gap := daysBetween(*s.LastReadDate, now, loc); {
		case gap <= 0:
			// same day
		case gap == 1:
			s.CurrentStreak++
		default:
			s.CurrentStreak = 1
		}
	}

	readAt := now
	s.LastReadDate = &readAt
}

// daysBetween counts calendar days from a to b in loc.
func daysBetween(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
