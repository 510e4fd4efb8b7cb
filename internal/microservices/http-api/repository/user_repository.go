package repository

import (
	"context"

	"bukinn/internal/microservices/http-api/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	Activate(ctx context.Context, id string) error
	UpdateProfile(ctx context.Context, user *models.User) error
	SetRefreshTokenHash(ctx context.Context, id string, hash *string) error
	SaveStats(ctx context.Context, id string, stats models.ReadingStats) error
	SetRoleByPhone(ctx context.Context, phone, role string) error
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(conn(ctx, r.db).Create(user).Error)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).First(&user, "id = ?", id).Error; err != nil {
		// never hand back a zero-value user alongside an error
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := conn(ctx, r.db).Where("phone_number = ?", phone).First(&user).Error; err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (r *userRepository) Activate(ctx context.Context, id string) error {
	return r.updateColumns(ctx, id, map[string]any{"is_active": true})
}

// UpdateProfile writes the client-editable fields only.
func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	return r.updateColumns(ctx, user.ID, map[string]any{
		"name":               user.Name,
		"email":              user.Email,
		"preferred_language": user.PreferredLanguage,
	})
}

func (r *userRepository) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	return r.updateColumns(ctx, id, map[string]any{"refresh_token_hash": hash})
}

func (r *userRepository) SaveStats(ctx context.Context, id string, stats models.ReadingStats) error {
	return r.updateColumns(ctx, id, map[string]any{
		"total_books_read":      stats.TotalBooksRead,
		"total_reading_minutes": stats.TotalReadingMinutes,
		"current_streak":        stats.CurrentStreak,
		"last_read_date":        stats.LastReadDate,
	})
}

func (r *userRepository) SetRoleByPhone(ctx context.Context, phone, role string) error {
	result := conn(ctx, r.db).Model(&models.User{}).Where("phone_number = ?", phone).Update("role", role)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *userRepository) updateColumns(ctx context.Context, id string, columns map[string]any) error {
	result := conn(ctx, r.db).Model(&models.User{}).Where("id = ?", id).Updates(columns)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
