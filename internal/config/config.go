package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	DatabaseType    string // sqlite, postgres, mysql
	DatabaseDSN     string
	MigrationsPath  string
	SessionDuration time.Duration
	LogLevel        string

	// Admin access is a single shared token, not a password login.
	AdminToken string

	// Google sign-in for parents. Empty client ID disables the flow.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// SES email notifications. Empty sender disables sending.
	EmailSender    string
	EmailRegion    string
	AppBaseURL     string
	ActivationTTL  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is honoured when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:         getEnv("PORT", "8080"),
		DatabaseType:       getEnv("DB_TYPE", "sqlite"),
		DatabaseDSN:        getEnv("DB_DSN", "./cetele.db"),
		MigrationsPath:     getEnv("MIGRATIONS_PATH", "./migrations"),
		SessionDuration:    getDurationEnv("SESSION_DURATION_HOURS", 24) * time.Hour,
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		AdminToken:         os.Getenv("ADMIN_TOKEN"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URL"),
		EmailSender:        os.Getenv("EMAIL_SENDER"),
		EmailRegion:        getEnv("EMAIL_REGION", "eu-west-1"),
		AppBaseURL:         getEnv("APP_BASE_URL", "http://localhost:8080"),
		ActivationTTL:      getDurationEnv("ACTIVATION_TTL_HOURS", 48) * time.Hour,
	}

	if cfg.AdminToken == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN is required")
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", cfg.DatabaseType)
	}

	return cfg, nil
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultHours int) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(defaultHours)
}
