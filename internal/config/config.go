package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	AllowedOrigins string

	DatabaseURL string
	RedisURL    string

	JWTSecret string
	TokenTTL  time.Duration

	SendgridAPIKey string
	FromEmail      string
	AdminEmail     string

	CloudinaryUploadFolder string

	// DefaultDeadlineDays is the offset applied when an approved proposal
	// carries no explicit deadline (legacy pathway).
	DefaultDeadlineDays int

	RateLimitPropose time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppName:        getEnv("APP_NAME", "ClassPass"),
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "12345"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		FromEmail:      getEnv("FROM_EMAIL", "noreply@classpass.local"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),

		CloudinaryUploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "classpass"),
	}

	var err error
	cfg.TokenTTL, err = parseDuration(getEnv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	cfg.RateLimitPropose, err = parseDuration(getEnv("RATE_LIMIT_PROPOSE", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_PROPOSE: %w", err)
	}

	cfg.DefaultDeadlineDays, err = strconv.Atoi(getEnv("DEFAULT_DEADLINE_DAYS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_DEADLINE_DAYS: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func parseDuration(s string) (time.Duration, error) {
	return time.ParseDuration(s)
}
