package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"

	"bukinn/internal/apperror"
	"bukinn/internal/config"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired = apperror.Unauthorized("Token expired")
	ErrTokenInvalid = apperror.Unauthorized("Invalid token")
)

// AccessClaims is what an access token proves about its bearer.
type AccessClaims struct {
	UserID      string `json:"id"`
	PhoneNumber string `json:"phone_number"`
	Premium     bool   `json:"premium"`
	Type        string `json:"type"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	UserID string `json:"id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenService interface {
	IssueTokenPair(ctx context.Context, user *models.User) (TokenPair, error)
	VerifyAccess(token string) (*AccessClaims, error)
	VerifyRenewal(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, userID string) error
}

type tokenService struct {
	users         repository.UserRepository
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(users repository.UserRepository, cfg *config.Config) TokenService {
	return &tokenService{
		users:         users,
		accessSecret:  []byte(cfg.JWTAccessSecret),
		refreshSecret: []byte(cfg.JWTRefreshSecret),
		accessTTL:     cfg.AccessTokenTTL,  // 15 minutes
		refreshTTL:    cfg.RefreshTokenTTL, // 7 days
		now:           time.Now,
	}
}

// IssueTokenPair signs a new pair and makes its renewal token the only one
// accepted for user from now on.
func (s *tokenService) IssueTokenPair(ctx context.Context, user *models.User) (TokenPair, error) {
	now := s.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessClaims{
		UserID:      user.ID,
		PhoneNumber: user.PhoneNumber,
		Premium:     user.IsPremium(),
		Type:        tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return TokenPair{}, apperror.Internal(err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims{
		UserID: user.ID,
		Type:   tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return TokenPair{}, apperror.Internal(err)
	}

	hash := hashToken(refreshToken)
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, &hash); err != nil {
		return TokenPair{}, apperror.Internal(err)
	}
	return TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (s *tokenService) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	_, err := jwt.ParseWithClaims(token, claims, keyFunc(s.accessSecret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if claims.Type != tokenTypeAccess || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// VerifyRenewal returns the owner of token when it is the latest renewal
// token issued to them. Every failure looks the same to the caller.
func (s *tokenService) VerifyRenewal(ctx context.Context, token string) (string, error) {
	claims := &refreshClaims{}
	_, err := jwt.ParseWithClaims(token, claims, keyFunc(s.refreshSecret),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.Type != tokenTypeRefresh || claims.UserID == "" {
		return "", ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrTokenInvalid
		}
		return "", apperror.Internal(err)
	}
	if user.RefreshTokenHash == nil {
		return "", ErrTokenInvalid
	}
	if subtle.ConstantTimeCompare([]byte(hashToken(token)), []byte(*user.RefreshTokenHash)) != 1 {
		return "", ErrTokenInvalid
	}
	return user.ID, nil
}

func (s *tokenService) Revoke(ctx context.Context, userID string) error {
	if err := s.users.SetRefreshTokenHash(ctx, userID, nil); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("User not found")
		}
		return apperror.Internal(err)
	}
	return nil
}

func keyFunc(secret []byte) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	}
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
