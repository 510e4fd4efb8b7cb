package middleware

import (
	"context"
	"errors"
	"strings"

	"bukinn/internal/apperror"
	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "userID"
	ContextClaims = "claims"
	ContextUser   = "user"
)

var (
	ErrMissingToken    = apperror.Unauthorized("Access token required")
	ErrBadAuthHeader   = apperror.Unauthorized("Invalid authorization header format")
	ErrUnknownUser     = apperror.Unauthorized("User not found")
	ErrInactiveUser    = apperror.Forbidden("Account not activated")
	ErrAdminRequired   = apperror.Forbidden("Admin access required")
	errNoUserInContext = apperror.Unauthorized("Authentication required")
)

// AccessVerifier is satisfied by service.TokenService.
type AccessVerifier interface {
	VerifyAccess(token string) (*service.AccessClaims, error)
}

// UserFinder is satisfied by repository.UserRepository.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// Authenticate checks the bearer access token and stores its claims in
// the context for handlers to use.
func Authenticate(tokens AccessVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, ErrMissingToken)
			return
		}

		// "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Error(c, ErrBadAuthHeader)
			return
		}

		claims, err := tokens.VerifyAccess(token)
		if err != nil {
			response.Error(c, err)
			return
		}

		c.Set(ContextClaims, claims)
		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

// RequireAdmin loads the caller and rejects anyone who is not an active
// admin. Roles are read from the store, not from the token.
func RequireAdmin(users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := UserID(c)
		if userID == "" {
			response.Error(c, errNoUserInContext)
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				response.Error(c, ErrUnknownUser)
				return
			}
			response.Error(c, apperror.Internal(err))
			return
		}
		if !user.IsActive {
			response.Error(c, ErrInactiveUser)
			return
		}
		if !user.IsAdmin() {
			response.Error(c, ErrAdminRequired)
			return
		}

		c.Set(ContextUser, user)
		c.Next()
	}
}

// UserID returns the authenticated caller, or "" on public routes.
func UserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
