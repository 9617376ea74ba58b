package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port             string
	LogLevel         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	ShutdownTimeout  time.Duration

	// Storage
	DataBackend     string
	SQLitePath      string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string
	LocalFile       string
	FallbackToLocal bool

	// AMQP (empty URL disables event publishing)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Receipt classifier (empty key disables the receipt endpoint)
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	ClassifierTimeout time.Duration

	// Export worker
	ExportBackend       string
	ExportInterval      time.Duration
	GoogleSpreadsheetID string
	SheetName           string
}

func Load() *Config {
	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		HTTPReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", 20*time.Second),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataBackend:     getEnv("DATA_BACKEND", "sqlite"),
		SQLitePath:      getEnv("SQLITE_PATH", "tally.db"),
		MongoURI:        getEnv("MONGO_URI", ""),
		MongoDatabase:   getEnv("MONGO_DATABASE", "tally"),
		MongoCollection: getEnv("MONGO_COLLECTION", "records"),
		LocalFile:       getEnv("LOCAL_FILE", "tally.local.json"),
		FallbackToLocal: getEnvBool("FALLBACK_TO_LOCAL", true),

		AMQPURL:      getEnv("RABBITMQ_URL", ""),
		AMQPExchange: getEnv("RABBITMQ_EXCHANGE", "tally.transactions"),
		AMQPQueue:    getEnv("RABBITMQ_QUEUE", "transaction-events"),

		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		ClassifierTimeout: getEnvDuration("CLASSIFIER_TIMEOUT", 10*time.Second),

		ExportBackend:       getEnv("EXPORT_BACKEND", "sheets"),
		ExportInterval:      getEnvDuration("EXPORT_INTERVAL", 10*time.Minute),
		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		SheetName:           getEnv("TALLY_SHEET_NAME", "Transactions"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"sqlite", "mongo", "local"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLitePath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLitePath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Mongo configuration if backend is mongo
	if c.DataBackend == "mongo" {
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo backend")
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "Mongo database name cannot be empty when using mongo backend")
		}
		if c.MongoCollection == "" {
			errors = append(errors, "Mongo collection name cannot be empty when using mongo backend")
		}
	}

	// Validate local file ledger configuration
	if c.DataBackend == "local" && c.LocalFile == "" {
		errors = append(errors, "local ledger file path cannot be empty when using local backend")
	}
	if c.FallbackToLocal && c.LocalFile == "" {
		errors = append(errors, "local ledger file path cannot be empty when fallback is enabled")
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
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate classifier timeout
	if c.ClassifierTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid classifier timeout %v: must be at least 1 second", c.ClassifierTimeout))
	} else if c.ClassifierTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid classifier timeout %v: must be at most 5 minutes", c.ClassifierTimeout))
	}

	// Validate server timeouts
	if c.HTTPReadTimeout < time.Second || c.HTTPWriteTimeout < time.Second {
		errors = append(errors, "HTTP timeouts must be at least 1 second")
	}
	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	// Validate export worker configuration
	if c.ExportBackend != "sheets" && c.ExportBackend != "memory" {
		errors = append(errors, fmt.Sprintf("invalid export backend '%s': must be one of [sheets memory]", c.ExportBackend))
	}
	if c.ExportInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at least 1 second", c.ExportInterval))
	} else if c.ExportInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid export interval %v: must be at most 24 hours", c.ExportInterval))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
