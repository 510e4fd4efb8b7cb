package handler

import (
	"time"

	"bukinn/internal/microservices/http-api/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries what the router needs besides the handlers.
type RouterConfig struct {
	Logger      *zap.Logger
	CORSOrigins []string
	Tokens      middleware.AccessVerifier
	Users       middleware.UserFinder
	AuthLimiter *middleware.IPRateLimiter
}

type Handlers struct {
	Auth       *AuthHandler
	Books      *BookHandler
	Authors    *AuthorHandler
	Categories *CategoryHandler
	Progress   *ProgressHandler
	Health     *HealthHandler
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(cfg.Logger),
		middleware.Recovery(cfg.Logger),
		cors.New(corsConfig(cfg.CORSOrigins)),
	)

	h.Health.RegisterRoutes(r)

	authenticate := middleware.Authenticate(cfg.Tokens)
	requireAdmin := middleware.RequireAdmin(cfg.Users)
	limit := cfg.AuthLimiter.Middleware()

	v1 := r.Group("/api/v1")
	h.Auth.RegisterRoutes(v1, authenticate, limit)
	h.Books.RegisterRoutes(v1, authenticate, requireAdmin)
	h.Authors.RegisterRoutes(v1, authenticate, requireAdmin)
	h.Categories.RegisterRoutes(v1, authenticate, requireAdmin)
	h.Progress.RegisterRoutes(v1, authenticate)
	return r
}

// corsConfig allows every origin, without credentials, when origins is
// empty or "*".
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
