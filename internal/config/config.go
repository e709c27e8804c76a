package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP server
	Port           string
	RequestTimeout time.Duration

	// Event store backend
	DataBackend  string
	SQLiteDBPath string

	// CurrencyUnitID is the measurement unit whose amounts are summed as
	// monetary spend. A convention of the dataset, not a type distinction,
	// so it stays configurable.
	CurrencyUnitID int64

	// Drill-down subset cache
	SubsetCacheSize int
	SubsetCacheTTL  time.Duration

	// AMQP change bus (optional; empty URL disables it)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8082"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 7*time.Second),

		DataBackend:  getEnv("DATA_BACKEND", "memory"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/lifelog.db"),

		CurrencyUnitID: getEnvInt64("CURRENCY_UNIT_ID", 1),

		SubsetCacheSize: getEnvInt("SUBSET_CACHE_SIZE", 200),
		SubsetCacheTTL:  getEnvDuration("SUBSET_CACHE_TTL", 5*time.Minute),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "lifelog"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "event_changes"),
	}
}

// Validate checks the configuration and returns one error describing every
// problem found.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "sqlite":
		// Pure check only; the repository creates the directory when it opens.
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "memory":
		// Nothing to check.
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [sqlite memory]", c.DataBackend))
	}

	if c.CurrencyUnitID < 1 {
		errors = append(errors, fmt.Sprintf("invalid currency unit id %d: must be a positive id", c.CurrencyUnitID))
	}

	if c.SubsetCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid subset cache size %d: must be at least 1", c.SubsetCacheSize))
	} else if c.SubsetCacheSize > 10000 {
		errors = append(errors, fmt.Sprintf("invalid subset cache size %d: must be at most 10000", c.SubsetCacheSize))
	}

	if c.SubsetCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid subset cache TTL %v: must be at least 1 second", c.SubsetCacheTTL))
	} else if c.SubsetCacheTTL > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid subset cache TTL %v: must be at most 24 hours", c.SubsetCacheTTL))
	}

	if c.RequestTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must be at least 1 second", c.RequestTimeout))
	}

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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
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
