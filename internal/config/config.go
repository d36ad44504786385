package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // timezone names must resolve on hosts without zoneinfo
)

const (
	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
	SessionBackendRedis  = "redis"
	SessionBackendMemory = "memory"
)

type Config struct {
	// Remote expense service
	APIBaseURL  string
	HTTPTimeout time.Duration
	// Timezone used to interpret and emit expense datetimes
	Timezone string

	// Session persistence
	SessionBackend string
	SessionDir     string
	SQLiteDBPath   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisPrefix    string

	// AMQP change events (optional)
	AMQPURL      string
	AMQPExchange string

	// Google Sheets report export (optional)
	GoogleSpreadsheetID      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleTotalsSheetName    string
	GoogleTimelineSheetName  string

	// Sync
	DeleteConcurrency int

	LogLevel string
}

func Load() *Config {
	return &Config{
		APIBaseURL:  getEnv("EXPENSYNC_API_BASE_URL", "http://localhost:8080"),
		HTTPTimeout: getEnvDuration("EXPENSYNC_HTTP_TIMEOUT", 30*time.Second),
		Timezone:    getEnv("EXPENSYNC_TIMEZONE", "UTC"),

		SessionBackend: getEnv("EXPENSYNC_SESSION_BACKEND", SessionBackendFile),
		SessionDir:     getEnv("EXPENSYNC_SESSION_DIR", defaultSessionDir()),
		SQLiteDBPath:   getEnv("EXPENSYNC_SQLITE_PATH", "./data/expensync.db"),
		RedisAddr:      getEnv("EXPENSYNC_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("EXPENSYNC_REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("EXPENSYNC_REDIS_DB", 0),
		RedisPrefix:    getEnv("EXPENSYNC_REDIS_PREFIX", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expensync"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")),
		GoogleTotalsSheetName:    getEnv("GOOGLE_TOTALS_SHEET_NAME", "Totals"),
		GoogleTimelineSheetName:  getEnv("GOOGLE_TIMELINE_SHEET_NAME", "Timeline"),

		DeleteConcurrency: getEnvInt("EXPENSYNC_DELETE_CONCURRENCY", 4),

		LogLevel: getEnv("EXPENSYNC_LOG_LEVEL", "info"),
	}
}

// Location resolves the configured timezone. Validate reports bad names,
// so callers that validated first can ignore the error.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate API base URL
	if strings.TrimSpace(c.APIBaseURL) == "" {
		errors = append(errors, "API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	if c.HTTPTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at least 1 second", c.HTTPTimeout))
	} else if c.HTTPTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid HTTP timeout %v: must be at most 5 minutes", c.HTTPTimeout))
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Validate session backend
	validBackends := []string{SessionBackendFile, SessionBackendSQLite, SessionBackendRedis, SessionBackendMemory}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.SessionBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validBackends))
	}

	switch c.SessionBackend {
	case SessionBackendFile:
		if c.SessionDir == "" {
			errors = append(errors, "session directory cannot be empty when using file backend")
		}
	case SessionBackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			errors = append(errors, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errors = append(errors, fmt.Sprintf("invalid Redis DB %d: must not be negative", c.RedisDB))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets configuration if export is enabled
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets export")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
		if c.GoogleTotalsSheetName == "" || c.GoogleTimelineSheetName == "" {
			errors = append(errors, "Google sheet names cannot be empty when sheets export is enabled")
		}
	}

	if c.DeleteConcurrency < 1 {
		errors = append(errors, fmt.Sprintf("invalid delete concurrency %d: must be at least 1", c.DeleteConcurrency))
	} else if c.DeleteConcurrency > 32 {
		errors = append(errors, fmt.Sprintf("invalid delete concurrency %d: must be at most 32", c.DeleteConcurrency))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func defaultSessionDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "expensync")
	}
	return ".expensync"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
