// Package config handles loading application configuration from environment variables.
// All settings have sensible defaults for local development.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application settings loaded from environment variables.
type Config struct {
	Port               string
	RedisURL           string
	DatabasePath       string
	DLQRetryInterval   time.Duration
	HeartbeatInterval  time.Duration
	RateLimitPerMinute int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables, using defaults where not set.
// An empty REDIS_URL selects the in-memory broker, which is only suitable for
// a single-instance dev run.
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		RedisURL:           getEnv("REDIS_URL", ""),
		DatabasePath:       getEnv("DATABASE_PATH", "./notifly.db"),
		DLQRetryInterval:   getDurationEnv("DLQ_RETRY_INTERVAL", 30*time.Second),
		HeartbeatInterval:  getDurationEnv("HEARTBEAT_INTERVAL", 30*time.Second),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS"),
	}
}

func getStringSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
