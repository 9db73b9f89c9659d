package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	LogLevel        slog.Level
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	DataDir string

	GTFSURL           string
	GTFSCheckInterval time.Duration

	TrackerEnabled  bool
	TrackerBaseURL  string
	TrackerAPIKey   string
	PollInterval    time.Duration
	PollMaxRetries  int
	TrainStaleAfter time.Duration

	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		LogLevel:        getLogLevelEnv("LOG_LEVEL", slog.LevelInfo),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		ReadTimeout:     getDurationEnv("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getDurationEnv("WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getDurationEnv("SHUTDOWN_TIMEOUT", 30*time.Second),

		DataDir: getEnv("DATA_DIR", "./data"),

		GTFSURL:           getEnv("GTFS_URL", "https://www.transitchicago.com/downloads/sch_data/google_transit.zip"),
		GTFSCheckInterval: getDurationEnv("GTFS_CHECK_INTERVAL", 24*time.Hour),

		TrackerEnabled:  getBoolEnv("TRACKER_ENABLED", false),
		TrackerBaseURL:  getEnv("TRACKER_API_URL", "http://lapi.transitchicago.com/api/1.0/ttpositions.aspx"),
		TrackerAPIKey:   os.Getenv("CTA_API_KEY"),
		PollInterval:    getDurationEnv("POLL_INTERVAL", time.Minute),
		PollMaxRetries:  getIntEnv("POLL_MAX_RETRIES", 2),
		TrainStaleAfter: getDurationEnv("TRAIN_STALE_AFTER", 5*time.Minute),

		RedisEnabled:  getBoolEnv("REDIS_ENABLED", false),
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		CacheTTL:      getDurationEnv("CACHE_TTL", time.Hour),
	}

	if cfg.TrackerEnabled && cfg.TrackerAPIKey == "" {
		return nil, fmt.Errorf("CTA_API_KEY environment variable is required when TRACKER_ENABLED is set")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getLogLevelEnv(key string, defaultVal slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv(key)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return defaultVal
	}
}
