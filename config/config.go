// Package config loads configuration from environment variables.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the server and CLI configuration.
type Config struct {
	// Server
	ListenAddr string
	StaticDir  string // empty serves the API only

	// External programs
	ADBPath    string
	FFmpegPath string

	// Timeouts
	CommandTimeout    time.Duration
	PullTimeout       time.Duration
	ScreenshotTimeout time.Duration

	// Local storage
	StorageDir   string
	ThumbnailDir string
	DatabasePath string

	// Logging and tracing
	LogLevel    string
	LogFormat   string
	TraceStdout bool
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	cfg := &Config{
		ListenAddr:        envOr("ADBFM_LISTEN", ":5001"),
		StaticDir:         envOr("ADBFM_STATIC_DIR", ""),
		ADBPath:           envOr("ADBFM_ADB", "adb"),
		FFmpegPath:        envOr("ADBFM_FFMPEG", "ffmpeg"),
		CommandTimeout:    envDuration("ADBFM_COMMAND_TIMEOUT", 30*time.Second),
		PullTimeout:       envDuration("ADBFM_PULL_TIMEOUT", 30*time.Minute),
		ScreenshotTimeout: envDuration("ADBFM_SCREENSHOT_TIMEOUT", 10*time.Second),
		StorageDir:        envOr("ADBFM_STORAGE_DIR", "storage"),
		ThumbnailDir:      envOr("ADBFM_THUMB_DIR", ".cache_thumbnail"),
		LogLevel:          envOr("LOG_LEVEL", "info"),
		LogFormat:         envOr("LOG_FORMAT", "console"),
		TraceStdout:       envBool("ADBFM_TRACE_STDOUT", false),
	}
	cfg.DatabasePath = envOr("ADBFM_DB", filepath.Join(cfg.StorageDir, "transfers.db"))
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// envDuration accepts Go durations ("45s") or a bare number of seconds.
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
