package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout, including the running job (default: 10s)

	DatabaseFile string // Optional: path to SQLite job history (default: ./inviter.db)
	StagingDir   string // Optional: directory for uploaded lists (default: $TMPDIR/bulkinvite)
	ProgressFile string // Optional: mirror of the progress log (default: none)

	DirectoryAPIHost    string        // Default directory host for submissions that leave it empty
	DirectoryAPIVersion string        // Default directory API version
	DirectoryRoleID     string        // Default role granted to invitees
	DirectoryScheme     string        // URL scheme for the directory (default: https)
	DirectoryTimeout    time.Duration // Per-call directory timeout (default: 30s)

	MaxUploadBytes       int64         // Largest accepted list (default: 10 MiB)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
	JobRetention         time.Duration // How long finished jobs stay in history (default: 30 days)
}

func LoadConfig() Config {
	return Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		DatabaseFile: getEnvOrDefault("INVITER_DATABASE_FILE", "inviter.db"),
		StagingDir:   getEnvOrDefault("INVITER_STAGING_DIR", DefaultStagingDir()),
		ProgressFile: os.Getenv("PROGRESS_FILE"),

		DirectoryAPIHost:    getEnvOrDefault("DIRECTORY_API_HOST", domain.DefaultAPIHost),
		DirectoryAPIVersion: getEnvOrDefault("DIRECTORY_API_VERSION", domain.DefaultAPIVersion),
		DirectoryRoleID:     getEnvOrDefault("DIRECTORY_ROLE_ID", domain.DefaultRoleID),
		DirectoryScheme:     strings.ToLower(getEnvOrDefault("DIRECTORY_SCHEME", "https")),
		DirectoryTimeout:    getEnvDurationOrDefault("DIRECTORY_TIMEOUT", 30*time.Second),

		MaxUploadBytes:       int64(getEnvIntOrDefault("MAX_UPLOAD_BYTES", 10<<20)),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
		JobRetention:         getEnvDurationOrDefault("JOB_RETENTION", 30*24*time.Hour),
	}
}

// DefaultStagingDir is shared by the server and the CLI so both contend for
// the same staging lock.
func DefaultStagingDir() string {
	return filepath.Join(os.TempDir(), "bulkinvite")
}

// JobDefaults is the directory settings a submission falls back to.
func (c Config) JobDefaults() domain.JobConfig {
	return domain.JobConfig{
		APIHost:    c.DirectoryAPIHost,
		APIVersion: c.DirectoryAPIVersion,
		RoleID:     c.DirectoryRoleID,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
