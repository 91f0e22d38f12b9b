package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Config struct {
	Env        string
	BaseURL    string
	SeedDemo   bool
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
	Cloudinary CloudinaryConfig
	RateLimit  RateLimitConfig
	Jobs       JobsConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns DB_URL when set, otherwise a key/value DSN built from the parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type SMTPConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type CloudinaryConfig struct {
	URL    string
	Folder string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type JobsConfig struct {
	NotificationRetentionDays int
	CleanupIntervalMinutes    int
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func Load(log *zap.Logger) *Config {
	return &Config{
		Env:      getEnv("ENV", "development", log),
		BaseURL:  getEnv("APP_BASE_URL", "http://localhost:3000", log),
		SeedDemo: getEnvAsBool("SEED_DEMO_DATA", false),
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080", log),
			GinMode:        getEnv("GIN_MODE", "debug", log),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000", log)),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DB_URL"),
			Host:     getEnv("DB_HOST", "localhost", log),
			Port:     getEnv("DB_PORT", "5432", log),
			User:     getEnv("DB_USER", "postgres", log),
			Password: getEnv("DB_PASSWORD", "password", log),
			Name:     getEnv("DB_NAME", "code_review_market", log),
			SSLMode:  getEnv("DB_SSL_MODE", "disable", log),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "change-me-in-production", log),
			ExpiryHours: getEnvAsInt("JWT_EXPIRY_HOURS", 24),
		},
		SMTP: SMTPConfig{
			Enabled:  getEnvAsBool("SMTP_ENABLED", false),
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("SMTP_FROM", "no-reply@codereview.local", log),
		},
		Cloudinary: CloudinaryConfig{
			URL:    os.Getenv("CLOUDINARY_URL"),
			Folder: getEnv("CLOUDINARY_FOLDER", "code-review-market", log),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Jobs: JobsConfig{
			NotificationRetentionDays: getEnvAsInt("NOTIFICATION_RETENTION_DAYS", 90),
			CleanupIntervalMinutes:    getEnvAsInt("CLEANUP_INTERVAL_MINUTES", 60),
		},
	}
}

func getEnv(key, defaultValue string, log *zap.Logger) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	log.Warn("environment variable not set, using default",
		zap.String("key", key),
		zap.String("default", defaultValue),
	)
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
