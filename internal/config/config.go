package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort   int
	DatabasePath string
	UploadDir    string // Base path for stored video files

	JWTSecret string
	TokenTTL  time.Duration

	MaxUploadBytes int64

	// RoleEnabled controls whether registration accepts a role and tokens carry it.
	RoleEnabled bool
	// PublicVideoReads leaves /videos and /video/{id} unauthenticated when true.
	PublicVideoReads bool

	CORSOrigins []string

	// JanitorSchedule is a standard cron expression for the orphaned-file sweep.
	JanitorSchedule string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET must be set")
	}

	ttl, err := time.ParseDuration(getEnv("TOKEN_TTL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", strconv.Itoa(100<<20)), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES: %w", err)
	}

	return &Config{
		ServerPort:       port,
		DatabasePath:     getEnv("DATABASE_PATH", "./clipvault.db"),
		UploadDir:        getEnv("UPLOAD_DIR", "./uploads"),
		JWTSecret:        secret,
		TokenTTL:         ttl,
		MaxUploadBytes:   maxUpload,
		RoleEnabled:      getEnv("ROLE_ENABLED", "false") == "true",
		PublicVideoReads: getEnv("PUBLIC_VIDEO_READS", "true") == "true",
		CORSOrigins:      strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		JanitorSchedule:  getEnv("JANITOR_SCHEDULE", "0 3 * * *"),
	}, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
