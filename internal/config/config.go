// Package config provides configuration helpers for go-overlay commands.
// Values come from the environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults used when the environment does not override them.
const (
	DefaultPort     = "8090"
	DefaultDetector = "face"
	DefaultModelDir = "models"
	DefaultLogLevel = "info"
)

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding variables already set. Missing files are
// not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// String returns the env var key, or def when unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var key parsed as an int, or def when unset or invalid.
func Int(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Bool returns the env var key parsed as a bool, or def when unset or invalid.
func Bool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// Port returns the dashboard port from OVERLAY_PORT.
func Port() string {
	return String("OVERLAY_PORT", DefaultPort)
}

// Detector returns the detector kind from OVERLAY_DETECTOR:
// "face", "object", "classify" or "none".
func Detector() string {
	return String("OVERLAY_DETECTOR", DefaultDetector)
}

// ModelDir returns the directory holding ONNX models from OVERLAY_MODEL_DIR.
func ModelDir() string {
	return String("OVERLAY_MODEL_DIR", DefaultModelDir)
}

// LogLevel returns the log level from LOG_LEVEL.
func LogLevel() string {
	return String("LOG_LEVEL", DefaultLogLevel)
}

// GoogleAPIKey returns GOOGLE_API_KEY, falling back to GEMINI_API_KEY.
func GoogleAPIKey() string {
	if k := os.Getenv("GOOGLE_API_KEY"); k != "" {
		return k
	}
	return os.Getenv("GEMINI_API_KEY")
}
