package domain

import (
	"context"
	"io"
	"time"
)

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string

	GetStorageBackend() string
	GetStoragePath() string
	GetStorageKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetDatabaseDriver() string
	GetDatabaseDSN() string

	GetSupabaseURL() string
	GetSupabaseKey() string
	GetArchiveBucket() string
	GetJWTSecret() string
	GetSyncKey() string
	GetWebhookURL() string

	GetComplianceURL() string
	GetComplianceAPIKey() string
	GetComplianceTimeout() time.Duration

	GetHistoryDepth() int
	GetSessionTTL() time.Duration
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
	GetAllowedOrigins() []string
}

// KeyValueStore is the single-key string store the template envelope lives in.
// Get reports found=false, without an error, when the key has never been written.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Clipboard reads and writes plain text.
type Clipboard interface {
	ReadText(ctx context.Context) (string, error)
	WriteText(ctx context.Context, text string) error
}

// NoticeLevel grades a user-facing notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

// Notifier receives the short user-facing messages editor operations emit.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// Renderer turns a template into a binary document. Values fill
// {{field}} placeholders.
type Renderer interface {
	Render(w io.Writer, template *Template, values map[string]string) error
	ContentType() string
}

// Metrics records application counters. Implementations must be safe for
// concurrent use.
type Metrics interface {
	StorageOperation(op string, err error)
	StorageRecovered()
	TemplateImported(source string, success bool)
	TemplateExported(format string)
	EditorCommand(op string, err error)
	SessionsActive(n int)
	ComplianceRequest(op string, outcome string)
	WebhookDelivery(event string, success bool)
}
