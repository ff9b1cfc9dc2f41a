package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT / staff identity
	JwtSecret       string
	JwtTTL          time.Duration
	AdminEmails     []string // fixed allow-list; role=admin iff email is listed
	StaffPasswdHash string   // bcrypt hash checked at /auth/login

	// Server
	ApiPort string

	// AWS S3 (photo blob storage)
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	PhotoBaseURL       string // public URL prefix for uploaded objects
	PhotoMaxSizeMB     int

	// App Defaults
	AppName            string
	MaxPhotosPerReq    int
	MaxBookingListSize int

	// Rate Limiting Defaults
	RateLimitBucketSize int
	RateLimitRefillRate int // tokens per second
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "huntmate")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret, err = getRequiredEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.StaffPasswdHash = getEnv("STAFF_PASSWORD_HASH", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.PhotoBaseURL = getEnv("PHOTO_BASE_URL", "")
	cfg.AppName = getEnv("APP_NAME", "HuntMate")

	// Admin allow-list: comma-separated emails, lowercased on load.
	adminEmails := getEnv("ADMIN_EMAILS", "")
	for _, e := range strings.Split(adminEmails, ",") {
		if trimmed := strings.TrimSpace(strings.ToLower(e)); trimmed != "" {
			cfg.AdminEmails = append(cfg.AdminEmails, trimmed)
		}
	}

	cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	jwtTTLSeconds, err := strconv.ParseInt(getEnv("JWT_TTL_SECONDS", "3600"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_SECONDS: %w", err)
	}
	cfg.JwtTTL = time.Duration(jwtTTLSeconds) * time.Second

	cfg.PhotoMaxSizeMB, err = strconv.Atoi(getEnv("PHOTO_MAX_SIZE_MB", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid PHOTO_MAX_SIZE_MB: %w", err)
	}

	cfg.MaxPhotosPerReq, err = strconv.Atoi(getEnv("MAX_PHOTOS_PER_REQUEST", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PHOTOS_PER_REQUEST: %w", err)
	}

	cfg.MaxBookingListSize, err = strconv.Atoi(getEnv("MAX_BOOKING_LIST_SIZE", "200"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_BOOKING_LIST_SIZE: %w", err)
	}

	cfg.RateLimitBucketSize, err = strconv.Atoi(getEnv("RATE_LIMIT_BUCKET_SIZE", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BUCKET_SIZE: %w", err)
	}
	cfg.RateLimitRefillRate, err = strconv.Atoi(getEnv("RATE_LIMIT_REFILL_RATE", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_REFILL_RATE: %w", err)
	}

	return cfg, nil
}

// IsAdminEmail reports whether email is on the fixed admin allow-list.
func (c *Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}
