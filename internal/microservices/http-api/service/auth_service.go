package service

import (
	"context"
	"errors"
	"strings"

	"bukinn/internal/apperror"
	"bukinn/internal/logger"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"

	"go.uber.org/zap"
)

var (
	ErrUserExists      = apperror.Conflict("User already exists")
	ErrUserNotFound    = apperror.NotFound("User not found")
	ErrSignupFirst     = apperror.NotFound("User not found. Please signup first.")
	ErrAccountInactive = apperror.Forbidden("Account not activated. Please verify OTP.")
	ErrInvalidOTP      = apperror.ValidationField("otp", "Invalid or expired OTP")
	ErrAdminSignup     = apperror.Forbidden("Admin accounts cannot be created through signup")
	ErrNothingToUpdate = apperror.Validation("At least one field must be provided")
)

// OTPVerifier is satisfied by *otp.Verifier.
type OTPVerifier interface {
	Issue(ctx context.Context, phone string) error
	Check(ctx context.Context, phone, code string) (bool, error)
}

// AuthResult is returned by every flow that ends in a session.
type AuthResult struct {
	User   *models.User
	Tokens TokenPair
}

// ProfileUpdate holds the optional profile fields; nil means unchanged.
type ProfileUpdate struct {
	Name              *string
	Email             *string
	PreferredLanguage *string
}

type AuthService interface {
	Signup(ctx context.Context, phone, name, role string) (string, error)
	SendOTP(ctx context.Context, phone string) (string, error)
	VerifyOTP(ctx context.Context, userID, code string) (*AuthResult, error)
	Login(ctx context.Context, phone string) (string, error)
	VerifyLoginOTP(ctx context.Context, userID, code string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResult, error)
	Logout(ctx context.Context, userID string) error
	Profile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error)
}

type authService struct {
	users  repository.UserRepository
	otp    OTPVerifier
	tokens TokenService
	logger *zap.Logger
}

func NewAuthService(users repository.UserRepository, otp OTPVerifier, tokens TokenService, logger *zap.Logger) AuthService {
	return &authService{users: users, otp: otp, tokens: tokens, logger: logger}
}

// Signup creates an inactive user and sends the first code.
func (s *authService) Signup(ctx context.Context, phone, name, role string) (string, error) {
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser {
		return "", ErrAdminSignup
	}

	if _, err := s.users.FindByPhone(ctx, phone); err == nil {
		return "", ErrUserExists
	} else if !errors.Is(err, repository.ErrNotFound) {
		return "", apperror.Internal(err)
	}

	user := &models.User{
		PhoneNumber:       phone,
		Name:              strings.TrimSpace(name),
		IsActive:          false,
		Role:              role,
		PremiumStatus:     models.PremiumFree,
		PreferredLanguage: "en",
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrUserExists
		}
		return "", apperror.Internal(err)
	}
	s.logger.Info("user signup initiated", zap.String("phone", logger.MaskPhone(phone)), zap.String("user_id", user.ID))

	if err := s.otp.Issue(ctx, phone); err != nil {
		return "", err
	}
	return user.ID, nil
}

func (s *authService) SendOTP(ctx context.Context, phone string) (string, error) {
	user, err := s.findByPhone(ctx, phone, ErrUserNotFound)
	if err != nil {
		return "", err
	}
	if err := s.otp.Issue(ctx, phone); err != nil {
		return "", err
	}
	s.logger.Info("otp sent", zap.String("phone", logger.MaskPhone(phone)))
	return user.ID, nil
}

// VerifyOTP activates the account on its first successful check.
func (s *authService) VerifyOTP(ctx context.Context, userID, code string) (*AuthResult, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCode(ctx, user, code); err != nil {
		return nil, err
	}

	if !user.IsActive {
		if err := s.users.Activate(ctx, user.ID); err != nil {
			return nil, apperror.Internal(err)
		}
		user.IsActive = true
		s.logger.Info("user activated", zap.String("user_id", user.ID))
	}
	return s.session(ctx, user)
}

func (s *authService) Login(ctx context.Context, phone string) (string, error) {
	user, err := s.findByPhone(ctx, phone, ErrSignupFirst)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", ErrAccountInactive
	}
	if err := s.otp.Issue(ctx, phone); err != nil {
		return "", err
	}
	s.logger.Info("login otp sent", zap.String("phone", logger.MaskPhone(phone)))
	return user.ID, nil
}

func (s *authService) VerifyLoginOTP(ctx context.Context, userID, code string) (*AuthResult, error) {
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	if err := s.checkCode(ctx, user, code); err != nil {
		return nil, err
	}
	return s.session(ctx, user)
}

// Refresh rotates the pair; the presented token stops working.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userID, err := s.tokens.VerifyRenewal(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, apperror.Internal(err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}
	return s.session(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.Revoke(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("user logged out", zap.String("user_id", userID))
	return nil
}

func (s *authService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.findByID(ctx, userID)
}

func (s *authService) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*models.User, error) {
	if in.Name == nil && in.Email == nil && in.PreferredLanguage == nil {
		return nil, ErrNothingToUpdate
	}
	user, err := s.findByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		user.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			user.Email = nil
		} else {
			user.Email = &email
		}
	}
	if in.PreferredLanguage != nil {
		user.PreferredLanguage = *in.PreferredLanguage
	}

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	s.logger.Info("profile updated", zap.String("user_id", user.ID))
	return user, nil
}

func (s *authService) checkCode(ctx context.Context, user *models.User, code string) error {
	approved, err := s.otp.Check(ctx, user.PhoneNumber, code)
	if err != nil {
		return err
	}
	if !approved {
		return ErrInvalidOTP
	}
	return nil
}

func (s *authService) session(ctx context.Context, user *models.User) (*AuthResult, error) {
	pair, err := s.tokens.IssueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

func (s *authService) findByID(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}

func (s *authService) findByPhone(ctx context.Context, phone string, notFound error) (*models.User, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound
		}
		return nil, apperror.Internal(err)
	}
	return user, nil
}
