package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Author struct {
	ID           string    `gorm:"primaryKey;type:uuid" json:"id"`
	Name         string    `gorm:"not null;index" json:"name"`
	Bio          string    `gorm:"not null;default:''" json:"bio,omitempty"`
	Email        string    `json:"email,omitempty"`
	Website      string    `json:"website,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Books        []Book    `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return
}

func (Author) TableName() string {
	return "authors"
}
