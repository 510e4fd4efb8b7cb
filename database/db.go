package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"bukinn/internal/config"
	"bukinn/pkg/retry"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Connect opens the Postgres pool, retrying until the database answers a
// ping or the configured attempts run out.
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*gorm.DB, error) {
	gormLog := gormlogger.New(
		zap.NewStdLog(logger.Named("gorm")),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var db *gorm.DB
	retrier := retry.New(retry.Fixed(cfg.DBConnectRetryDelay, cfg.DBConnectMaxRetries), logger)
	err := retrier.Execute(ctx, "database connect", func(ctx context.Context) error {
		conn, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
			Logger:         gormLog,
			TranslateError: true,
		})
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		if err := Ping(ctx, conn); err != nil {
			Close(conn)
			return err
		}
		db = conn
		return nil
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	logger.Info("Connected to the database successfully")
	return db, nil
}

// Ping checks the pool is reachable. Readiness probes use it too.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return nil
}

func Close(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// NewMigrator builds a migrate instance over the embedded SQL files, sharing
// the pool behind db.
func NewMigrator(db *gorm.DB) (*migrate.Migrate, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open migration source: %w", err)
	}
	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending up migration.
func RunMigrations(db *gorm.DB, logger *zap.Logger) error {
	m, err := NewMigrator(db)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Database migrations applied successfully",
		zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}
