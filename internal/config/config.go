package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr            string
	DBPath          string
	LogLevel        string
	NewSpread       string
	CollapseSeconds int
	QueueLimit      int
	BurySiblings    bool
	WorkerCount     int
	WorkerQueueSize int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:            envOr("ADDR", ":8080"),
		DBPath:          envOr("DB_PATH", "decksched.db"),
		LogLevel:        envOr("LOG_LEVEL", "INFO"),
		NewSpread:       envOr("NEW_SPREAD", "distribute"),
		CollapseSeconds: envIntOr("COLLAPSE_SECONDS", 1200),
		QueueLimit:      envIntOr("QUEUE_LIMIT", 50),
		BurySiblings:    envBoolOr("BURY_SIBLINGS", true),
		WorkerCount:     envIntOr("WORKER_COUNT", 1),
		WorkerQueueSize: envIntOr("WORKER_QUEUE_SIZE", 16),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envBoolOr(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("invalid value for %s=%q, using default %v", key, v, def)
	}
	return def
}
