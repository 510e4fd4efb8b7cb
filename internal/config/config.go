package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Service
	HTTPPort        int           `env:"HTTP_PORT" default:"8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`

	// Database
	DatabaseURL         string        `env:"DATABASE_URL" required:"true"`
	DBMaxOpenConns      int           `env:"DB_MAX_OPEN_CONNS" default:"25"`
	DBMaxIdleConns      int           `env:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnectRetryDelay time.Duration `env:"DB_CONNECT_RETRY_DELAY" default:"5s"`
	DBConnectMaxRetries int           `env:"DB_CONNECT_MAX_RETRIES" default:"10"`

	// Authentication
	JWTAccessSecret  string        `env:"JWT_ACCESS_SECRET" required:"true"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET" required:"true"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL" default:"168h"`

	// OTP
	OTPProvider            string `env:"OTP_PROVIDER" default:"redis"` // "twilio" or "redis"
	TwilioAccountSID       string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        string `env:"TWILIO_AUTH_TOKEN"`
	TwilioVerifyServiceSID string `env:"TWILIO_VERIFY_SERVICE_SID"`

	// Redis Cache
	RedisAddr     string `env:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" default:"0"`
	CacheTTL      int    `env:"CACHE_TTL" default:"300"`

	// Object storage
	StorageEndpoint   string `env:"STORAGE_ENDPOINT" default:"localhost:9000"`
	StorageAccessKey  string `env:"STORAGE_ACCESS_KEY"`
	StorageSecretKey  string `env:"STORAGE_SECRET_KEY"`
	StorageBucket     string `env:"STORAGE_BUCKET" default:"bukinn"`
	StorageUseSSL     bool   `env:"STORAGE_USE_SSL" default:"false"`
	StoragePublicURL  string `env:"STORAGE_PUBLIC_URL"`
	UploadMaxSizeByte int64  `env:"UPLOAD_MAX_SIZE_BYTES" default:"5242880"`

	// Reading
	ReadingTimezone string `env:"READING_TIMEZONE" default:"UTC"`

	// Rate limiting
	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" default:"5"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" default:"10"`

	// Development
	LogLevel    string   `env:"LOG_LEVEL" default:"debug"`
	LogFormat   string   `env:"LOG_FORMAT" default:"json"`
	CORSOrigins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
}

// LoadConfig loads configuration from .env, an optional CONFIG_FILE and the environment.
// Environment variables win over file values.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		// no .env is fine, system env vars still apply
		fmt.Printf("Warning: .env file not found: %v\n", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	l := loader{v: v}
	config := &Config{}

	l.String(&config.GoEnv, "GO_ENV", "development")

	// Service
	l.Int(&config.HTTPPort, "HTTP_PORT", 8080)
	l.Duration(&config.ShutdownTimeout, "SHUTDOWN_TIMEOUT", 10*time.Second)

	// Database
	l.StringRequired(&config.DatabaseURL, "DATABASE_URL")
	l.Int(&config.DBMaxOpenConns, "DB_MAX_OPEN_CONNS", 25)
	l.Int(&config.DBMaxIdleConns, "DB_MAX_IDLE_CONNS", 5)
	l.Duration(&config.DBConnectRetryDelay, "DB_CONNECT_RETRY_DELAY", 5*time.Second)
	l.Int(&config.DBConnectMaxRetries, "DB_CONNECT_MAX_RETRIES", 10)

	// Authentication
	l.StringRequired(&config.JWTAccessSecret, "JWT_ACCESS_SECRET")
	l.StringRequired(&config.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	l.Duration(&config.AccessTokenTTL, "ACCESS_TOKEN_TTL", 15*time.Minute)
	l.Duration(&config.RefreshTokenTTL, "REFRESH_TOKEN_TTL", 7*24*time.Hour)

	// OTP
	l.String(&config.OTPProvider, "OTP_PROVIDER", "redis")
	l.String(&config.TwilioAccountSID, "TWILIO_ACCOUNT_SID", "")
	l.String(&config.TwilioAuthToken, "TWILIO_AUTH_TOKEN", "")
	l.String(&config.TwilioVerifyServiceSID, "TWILIO_VERIFY_SERVICE_SID", "")

	// Redis
	l.String(&config.RedisAddr, "REDIS_ADDR", "localhost:6379")
	l.String(&config.RedisPassword, "REDIS_PASSWORD", "")
	l.Int(&config.RedisDB, "REDIS_DB", 0)
	l.Int(&config.CacheTTL, "CACHE_TTL", 300)

	// Object storage
	l.String(&config.StorageEndpoint, "STORAGE_ENDPOINT", "localhost:9000")
	l.String(&config.StorageAccessKey, "STORAGE_ACCESS_KEY", "")
	l.String(&config.StorageSecretKey, "STORAGE_SECRET_KEY", "")
	l.String(&config.StorageBucket, "STORAGE_BUCKET", "bukinn")
	l.Bool(&config.StorageUseSSL, "STORAGE_USE_SSL", false)
	l.String(&config.StoragePublicURL, "STORAGE_PUBLIC_URL", "")
	l.Int64(&config.UploadMaxSizeByte, "UPLOAD_MAX_SIZE_BYTES", 5*1024*1024)

	l.String(&config.ReadingTimezone, "READING_TIMEZONE", "UTC")

	// Rate limiting
	l.Float(&config.AuthRateLimit, "AUTH_RATE_LIMIT", 5)
	l.Int(&config.AuthRateBurst, "AUTH_RATE_BURST", 10)

	// Development
	l.String(&config.LogLevel, "LOG_LEVEL", "debug")
	l.String(&config.LogFormat, "LOG_FORMAT", "json")
	l.StringSlice(&config.CORSOrigins, "CORS_ORIGINS", []string{"http://localhost:3000"})

	if l.err != nil {
		return nil, l.err
	}
	return config, nil
}

// loader keeps the first error so the field list above reads top to bottom.
type loader struct {
	v   *viper.Viper
	err error
}

func (l *loader) raw(key string) string {
	return strings.TrimSpace(l.v.GetString(key))
}

func (l *loader) fail(err error) {
	if l.err == nil {
		l.err = err
	}
}

func (l *loader) String(target *string, key, defaultValue string) {
	if value := l.raw(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
}

func (l *loader) StringRequired(target *string, key string) {
	value := l.raw(key)
	if value == "" {
		l.fail(fmt.Errorf("required environment variable %s is not set", key))
		return
	}
	*target = value
}

func (l *loader) Int(target *int, key string, defaultValue int) {
	if value := l.raw(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			l.fail(fmt.Errorf("invalid integer value for %s: %v", key, err))
			return
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
}

func (l *loader) Int64(target *int64, key string, defaultValue int64) {
	if value := l.raw(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			l.fail(fmt.Errorf("invalid integer value for %s: %v", key, err))
			return
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
}

func (l *loader) Float(target *float64, key string, defaultValue float64) {
	if value := l.raw(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			l.fail(fmt.Errorf("invalid number value for %s: %v", key, err))
			return
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
}

func (l *loader) Bool(target *bool, key string, defaultValue bool) {
	if value := l.raw(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			l.fail(fmt.Errorf("invalid boolean value for %s: %v", key, err))
			return
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
}

func (l *loader) Duration(target *time.Duration, key string, defaultValue time.Duration) {
	if value := l.raw(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			l.fail(fmt.Errorf("invalid duration value for %s: %v", key, err))
			return
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
}

func (l *loader) StringSlice(target *[]string, key string, defaultValue []string) {
	if value := l.raw(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		*target = out
	} else {
		*target = defaultValue
	}
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		errors = append(errors, "HTTP_PORT must be between 1 and 65535")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"console", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(c.JWTAccessSecret) < 32 {
		errors = append(errors, "JWT_ACCESS_SECRET should be at least 32 characters long")
	}
	if len(c.JWTRefreshSecret) < 32 {
		errors = append(errors, "JWT_REFRESH_SECRET should be at least 32 characters long")
	}
	if c.JWTAccessSecret != "" && c.JWTAccessSecret == c.JWTRefreshSecret {
		errors = append(errors, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	switch c.OTPProvider {
	case "twilio":
		if c.TwilioAccountSID == "" || c.TwilioAuthToken == "" || c.TwilioVerifyServiceSID == "" {
			errors = append(errors, "TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN and TWILIO_VERIFY_SERVICE_SID are required when OTP_PROVIDER=twilio")
		}
	case "redis":
		if c.IsProduction() {
			errors = append(errors, "OTP_PROVIDER=redis is not allowed in production")
		}
	default:
		errors = append(errors, "OTP_PROVIDER must be one of: twilio, redis")
	}

	if _, err := time.LoadLocation(c.ReadingTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("READING_TIMEZONE is invalid: %v", err))
	}

	if c.UploadMaxSizeByte <= 0 {
		errors = append(errors, "UPLOAD_MAX_SIZE_BYTES must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GoEnv == "production"
}

// GinMode is debug only in development. Error causes reach responses in
// debug mode, so staging and test run in release mode too.
func (c *Config) GinMode() string {
	if c.IsDevelopment() {
		return gin.DebugMode
	}
	return gin.ReleaseMode
}

// Location returns the time zone used for reading-streak day boundaries.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReadingTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
