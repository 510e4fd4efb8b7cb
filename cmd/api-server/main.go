package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bukinn/database"
	"bukinn/internal/cache"
	"bukinn/internal/config"
	"bukinn/internal/logger"
	"bukinn/internal/microservices/http-api/dto"
	"bukinn/internal/microservices/http-api/handler"
	"bukinn/internal/microservices/http-api/middleware"
	"bukinn/internal/microservices/http-api/repository"
	"bukinn/internal/microservices/http-api/service"
	"bukinn/internal/otp"
	"bukinn/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func main() {
	// 1️⃣ Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// 2️⃣ Logger
	l, err := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "api-server"})
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	if err := run(cfg, l); err != nil {
		l.Fatal("api server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	gin.SetMode(cfg.GinMode())
	if err := dto.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3️⃣ Connect to the database
	db, err := database.Connect(ctx, cfg, l)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.RunMigrations(db, l); err != nil {
		return err
	}

	// 4️⃣ Redis backs the trending cache and, outside production, OTP codes
	rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()

	objects, err := storage.NewMinioStore(ctx, cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey,
		cfg.StorageBucket, cfg.StoragePublicURL, cfg.StorageUseSSL)
	if err != nil {
		return err
	}

	// 5️⃣ Wire layers
	users := repository.NewUserRepository(db)
	progress := repository.NewProgressRepository(db)
	books := repository.NewBookRepository(db)
	authors := repository.NewAuthorRepository(db)
	categories := repository.NewCategoryRepository(db)
	tx := repository.NewTransactor(db)

	tokens := service.NewTokenService(users, cfg)
	authService := service.NewAuthService(users, otp.NewVerifier(otpProvider(cfg, rdb, l)), tokens, l)
	bookService := service.NewBookService(books, authors, categories,
		storage.NewCoverUploader(objects, cfg.UploadMaxSizeByte, l),
		cache.NewTrendingCache(rdb, time.Duration(cfg.CacheTTL)*time.Second), l)
	progressService := service.NewProgressService(progress, books, users, tx, cfg.Location(), l)

	router := handler.NewRouter(handler.RouterConfig{
		Logger:      l,
		CORSOrigins: cfg.CORSOrigins,
		Tokens:      tokens,
		Users:       users,
		AuthLimiter: middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateBurst),
	}, handler.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Books:      handler.NewBookHandler(bookService, cfg.UploadMaxSizeByte),
		Authors:    handler.NewAuthorHandler(service.NewAuthorService(authors, books, l)),
		Categories: handler.NewCategoryHandler(service.NewCategoryService(categories, books, l)),
		Progress:   handler.NewProgressHandler(progressService),
		Health:     handler.NewHealthHandler(readinessChecks(db, rdb)...),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("🚀 Server running", zap.String("addr", srv.Addr), zap.String("env", cfg.GoEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	l.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// otpProvider picks Twilio Verify, or Redis with codes written to the log.
// Config validation keeps the Redis provider out of production.
func otpProvider(cfg *config.Config, rdb *redis.Client, l *zap.Logger) otp.Provider {
	if cfg.OTPProvider == "twilio" {
		return otp.NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioVerifyServiceSID)
	}
	l.Warn("OTP codes are written to the log; do not use this provider in production")
	return otp.NewRedisProvider(rdb, otp.LogSender{Logger: l.Named("otp")})
}

func readinessChecks(db *gorm.DB, rdb *redis.Client) []handler.ReadinessCheck {
	return []handler.ReadinessCheck{
		{Name: "database", Check: func(ctx context.Context) error { return database.Ping(ctx, db) }},
		{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
	}
}
