// Package config provides configuration loading from environment variables.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/usestring/tsharklog/internal/dissector"
	"github.com/usestring/tsharklog/internal/logging"
	"github.com/usestring/tsharklog/pkg/body"
)

// DefaultBodyCacheItems bounds the rendered-body cache.
const DefaultBodyCacheItems = 1024

// Config holds all configuration for a run. Command-line flags override it.
type Config struct {
	TsharkPath     string   // TSHARK_PATH, default "tshark"
	BodyCacheItems int      // BODY_CACHE_MAX_ITEMS, default 1024 (0 disables)
	MaskKeys       []string // MASK_KEYS, comma separated, default body.DefaultMaskKeys
	MaskMarker     string   // MASK_MARKER, default "******"
	MaxArrayItems  int      // MAX_ARRAY_ITEMS, default 0 (unlimited)
	MaxStringLen   int      // MAX_STRING_LEN, default 0 (unlimited)

	// Logging configuration
	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, default "text"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	logDefaults := logging.DefaultConfig()
	return &Config{
		TsharkPath:     getEnvString("TSHARK_PATH", dissector.DefaultBinary),
		BodyCacheItems: getEnvInt("BODY_CACHE_MAX_ITEMS", DefaultBodyCacheItems),
		MaskKeys:       getEnvList("MASK_KEYS", body.DefaultMaskKeys),
		MaskMarker:     getEnvString("MASK_MARKER", body.DefaultMarker),
		MaxArrayItems:  getEnvInt("MAX_ARRAY_ITEMS", 0),
		MaxStringLen:   getEnvInt("MAX_STRING_LEN", 0),

		LogLevel:      getEnvString("LOG_LEVEL", logDefaults.Level),
		LogFormat:     getEnvString("LOG_FORMAT", logDefaults.Format),
		LogFile:       getEnvString("LOG_FILE", logDefaults.FilePath),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", logDefaults.MaxSizeMB),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", logDefaults.MaxBackups),
		LogMaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", logDefaults.MaxAgeDays),
		LogCompress:   getEnvBool("LOG_COMPRESS", logDefaults.Compress),
	}
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		switch v {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
