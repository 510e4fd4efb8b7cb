package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bukinn/internal/microservices/http-api/models"
	"bukinn/internal/microservices/http-api/repository"
	"bukinn/internal/microservices/http-api/response"
	"bukinn/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyAccess(token string) (*service.AccessClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AccessClaims), args.Error(1)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, response.Envelope) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var body response.Envelope
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return w, body
}

func TestAuthenticate(t *testing.T) {
	verifier := new(mockVerifier)
	verifier.On("VerifyAccess", "good").Return(&service.AccessClaims{UserID: "user-1"}, nil)
	verifier.On("VerifyAccess", "expired").Return(nil, service.ErrTokenExpired)

	r := gin.New()
	r.GET("/me", Authenticate(verifier), func(c *gin.Context) {
		c.String(http.StatusOK, UserID(c))
	})

	testCases := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantMsg    string
	}{
		{"valid token", "Bearer good", http.StatusOK, "user-1", ""},
		{"lowercase scheme", "bearer good", http.StatusOK, "user-1", ""},
		{"missing header", "", http.StatusUnauthorized, "", "Access token required"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "", "Invalid authorization header format"},
		{"expired token", "Bearer expired", http.StatusUnauthorized, "", "Token expired"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w, body := perform(r, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantBody != "" {
				assert.Equal(t, tc.wantBody, w.Body.String())
			}
			if tc.wantMsg != "" {
				assert.False(t, body.Success)
				assert.Equal(t, tc.wantMsg, body.Message)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	users := new(mockUsers)
	users.On("FindByID", mock.Anything, "admin").Return(&models.User{ID: "admin", IsActive: true, Role: models.RoleAdmin}, nil)
	users.On("FindByID", mock.Anything, "reader").Return(&models.User{ID: "reader", IsActive: true, Role: models.RoleUser}, nil)
	users.On("FindByID", mock.Anything, "dormant").Return(&models.User{ID: "dormant", Role: models.RoleAdmin}, nil)
	users.On("FindByID", mock.Anything, "ghost").Return(nil, repository.ErrNotFound)

	testCases := []struct {
		userID     string
		wantStatus int
	}{
		{"admin", http.StatusNoContent},
		{"reader", http.StatusForbidden},
		{"dormant", http.StatusForbidden},
		{"ghost", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run("user "+tc.userID, func(t *testing.T) {
			r := gin.New()
			r.POST("/books", func(c *gin.Context) {
				if tc.userID != "" {
					c.Set(ContextUserID, tc.userID)
				}
				c.Next()
			}, RequireAdmin(users), func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			w, _ := perform(r, httptest.NewRequest(http.MethodPost, "/books", nil))
			assert.Equal(t, tc.wantStatus, w.Code)
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewIPRateLimiter(1, 2)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per IP")

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "refills over time")

	now = now.Add(visitorIdleTTL + time.Minute)
	limiter.Allow("10.0.0.3")
	assert.Len(t, limiter.visitors, 1, "idle visitors are swept")
}

func TestIPRateLimiterMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/auth/login", NewIPRateLimiter(1, 1).Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w, _ := perform(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w, body := perform(r, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.False(t, body.Success)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(ContextRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w, _ := perform(r, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-123", w.Body.String())

	w, _ = perform(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Logger(zap.NewNop()), Recovery(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w, body := perform(r, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", body.Message)
}
