package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL (canonical links, cookie security)
	BaseURL string

	// Remote content API
	APIBaseURL        string
	APITimeout        time.Duration
	APIMaxRetries     int
	APIRetryBaseDelay time.Duration

	// External waitlist endpoint and the defaults filled into its payload
	WaitlistURL         string
	WaitlistCountryCode string
	WaitlistRegChannel  string

	// Admin credential. ADMIN_PASSWORD_HASH (bcrypt) wins over ADMIN_PASSWORD.
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string

	// Signed session cookie
	SessionSecret string
	SessionTTL    time.Duration

	// Form instances are swept after this long without a request
	FormInstanceTTL time.Duration

	// Failed logins allowed per client IP per window
	LoginRateLimit int

	// Take the client IP from proxy headers. Only set behind a proxy that
	// overwrites them.
	TrustProxy bool

	// Optional Postgres submission log. Empty keeps the log in memory.
	DatabaseUrl string

	// Storage Configuration
	StorageProvider string // "local" or "r2"

	// Local Storage (development)
	LocalStoragePath string // Base directory for local file storage
	LocalStorageURL  string // Base URL for accessing local files

	// R2 Storage (production)
	R2AccountID       string
	R2AccessKeyID     string
	R2SecretAccessKey string
	R2BucketName      string
	R2PublicURL       string // Optional custom domain URL

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

// DefaultWaitlistURL is the production waitlist endpoint. It lives on a
// different host from the content API.
const DefaultWaitlistURL = "https://api-production.billpass.app/api/join_talent_place_waitinglist"

// IsDevelopment reports whether the server runs locally.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		APIBaseURL:        strings.TrimRight(os.Getenv("API_BASE_URL"), "/"),
		APITimeout:        getEnvDuration("API_TIMEOUT", 15*time.Second),
		APIMaxRetries:     getEnvInt("API_MAX_RETRIES", 0),
		APIRetryBaseDelay: getEnvDuration("API_RETRY_BASE_DELAY", 200*time.Millisecond),

		WaitlistURL:         getEnv("WAITLIST_URL", DefaultWaitlistURL),
		WaitlistCountryCode: getEnv("WAITLIST_COUNTRY_CODE", "NG"),
		WaitlistRegChannel:  getEnv("WAITLIST_REG_CHANNEL", "linkedin"),

		AdminUsername:     getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:     getEnv("ADMIN_PASSWORD", "@Sourzer2025"),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    getEnvDuration("SESSION_TTL", 7*24*time.Hour),

		FormInstanceTTL: getEnvDuration("FORM_INSTANCE_TTL", 30*time.Minute),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 5),
		TrustProxy:      getEnvBool("TRUST_PROXY", false),

		DatabaseUrl: getEnv("DATABASE_URL", ""),

		// Storage defaults to local filesystem for development
		StorageProvider:  getEnv("STORAGE_PROVIDER", "local"),
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/uploads"),

		// R2 configuration (production only)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2SecretAccessKey: getEnv("R2_SECRET_ACCESS_KEY", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", ""),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	// A development secret keeps local logins working across restarts.
	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET is required outside development")
		}
		cfg.SessionSecret = "development-only-session-secret"
	} else if len(cfg.SessionSecret) < 32 && !cfg.IsDevelopment() {
		return nil, fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}

	if cfg.APIMaxRetries < 0 {
		return nil, fmt.Errorf("API_MAX_RETRIES must not be negative, got: %d", cfg.APIMaxRetries)
	}
	if cfg.LoginRateLimit < 1 {
		return nil, fmt.Errorf("LOGIN_RATE_LIMIT must be at least 1, got: %d", cfg.LoginRateLimit)
	}

	// Validate storage configuration
	if cfg.StorageProvider == "r2" {
		if cfg.R2AccountID == "" {
			return nil, fmt.Errorf("R2_ACCOUNT_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2AccessKeyID == "" {
			return nil, fmt.Errorf("R2_ACCESS_KEY_ID is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2SecretAccessKey == "" {
			return nil, fmt.Errorf("R2_SECRET_ACCESS_KEY is required when STORAGE_PROVIDER is 'r2'")
		}
		if cfg.R2BucketName == "" {
			return nil, fmt.Errorf("R2_BUCKET_NAME is required when STORAGE_PROVIDER is 'r2'")
		}
	} else if cfg.StorageProvider != "local" {
		return nil, fmt.Errorf("STORAGE_PROVIDER must be either 'local' or 'r2', got: %s", cfg.StorageProvider)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
