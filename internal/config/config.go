package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"docbuilder/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort string
	LogLevel   string

	StorageBackend string
	StoragePath    string
	StorageKey     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	DatabaseDriver string
	DatabaseDSN    string

	SupabaseURL   string
	SupabaseKey   string
	ArchiveBucket string
	JWTSecret     string
	SyncKey       string
	WebhookURL    string

	ComplianceURL     string
	ComplianceAPIKey  string
	ComplianceTimeout time.Duration

	HistoryDepth   int
	SessionTTL     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// NewConfig creates a new configuration instance from the environment
func NewConfig() domain.Config {
	return &AppConfig{
		// PORT is set by most PaaS runtimes; SERVER_PORT is kept for local runs.
		ServerPort: getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),

		StorageBackend: strings.ToLower(getEnvOrDefault("STORAGE_BACKEND", "file")),
		StoragePath:    getEnvOrDefault("STORAGE_PATH", "./data/templates.json"),
		StorageKey:     getEnvOrDefault("STORAGE_KEY", "pdfmaker_templates"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnvOrDefault("REDIS_PASSWORD", ""),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),
		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseDSN:    getEnvOrDefault("DATABASE_DSN", "file:docbuilder.db"),

		SupabaseURL:   getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:   getEnvOrDefault("SUPABASE_SERVICE_ROLE_KEY", ""),
		ArchiveBucket: getEnvOrDefault("SUPABASE_ARCHIVE_BUCKET", ""),
		JWTSecret:     getEnvOrDefault("JWT_SECRET", "your-secret-key-change-in-production"),
		SyncKey:       getEnvOrDefault("DOCBUILDER_SYNC_KEY", ""),
		WebhookURL:    getEnvOrDefault("DOCBUILDER_WEBHOOK_URL", ""),

		ComplianceURL:     strings.TrimRight(getEnvOrDefault("WM_COMPLIANCE_URL", ""), "/"),
		ComplianceAPIKey:  getEnvOrDefault("WM_COMPLIANCE_API_KEY", ""),
		ComplianceTimeout: time.Duration(getEnvIntOrDefault("COMPLIANCE_TIMEOUT_SECONDS", 15)) * time.Second,

		HistoryDepth:   getEnvIntOrDefault("HISTORY_DEPTH", 20),
		SessionTTL:     time.Duration(getEnvIntOrDefault("SESSION_TTL_MINUTES", 60)) * time.Minute,
		RateLimitRPS:   getEnvFloatOrDefault("RATE_LIMIT_RPS", 10),
		RateLimitBurst: getEnvIntOrDefault("RATE_LIMIT_BURST", 30),
		AllowedOrigins: getEnvListOrDefault("ALLOWED_ORIGINS", []string{"*"}),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetStorageBackend returns one of file, redis, sql or memory
func (c *AppConfig) GetStorageBackend() string {
	return c.StorageBackend
}

// GetStoragePath returns the file backend's path
func (c *AppConfig) GetStoragePath() string {
	return c.StoragePath
}

// GetStorageKey returns the key the template envelope is stored under
func (c *AppConfig) GetStorageKey() string {
	return c.StorageKey
}

func (c *AppConfig) GetRedisAddr() string {
	return c.RedisAddr
}

func (c *AppConfig) GetRedisPassword() string {
	return c.RedisPassword
}

func (c *AppConfig) GetRedisDB() int {
	return c.RedisDB
}

// GetDatabaseDriver returns sqlite or postgres
func (c *AppConfig) GetDatabaseDriver() string {
	return c.DatabaseDriver
}

func (c *AppConfig) GetDatabaseDSN() string {
	return c.DatabaseDSN
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the service role key used by the sync repository
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetArchiveBucket returns the storage bucket rendered PDFs are archived to
func (c *AppConfig) GetArchiveBucket() string {
	return c.ArchiveBucket
}

// GetJWTSecret returns the key public share tokens are signed with
func (c *AppConfig) GetJWTSecret() string {
	return c.JWTSecret
}

// GetSyncKey returns the shared secret expected in X-Sync-Key
func (c *AppConfig) GetSyncKey() string {
	return c.SyncKey
}

func (c *AppConfig) GetWebhookURL() string {
	return c.WebhookURL
}

// GetComplianceURL returns the compliance service base URL without a trailing slash
func (c *AppConfig) GetComplianceURL() string {
	return c.ComplianceURL
}

func (c *AppConfig) GetComplianceAPIKey() string {
	return c.ComplianceAPIKey
}

func (c *AppConfig) GetComplianceTimeout() time.Duration {
	return c.ComplianceTimeout
}

// GetHistoryDepth returns how many undo steps an editor session keeps
func (c *AppConfig) GetHistoryDepth() int {
	return c.HistoryDepth
}

// GetSessionTTL returns how long an idle editor session survives
func (c *AppConfig) GetSessionTTL() time.Duration {
	return c.SessionTTL
}

func (c *AppConfig) GetRateLimitRPS() float64 {
	return c.RateLimitRPS
}

func (c *AppConfig) GetRateLimitBurst() int {
	return c.RateLimitBurst
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil && intValue >= 0 {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
