package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/usestring/tsharklog/internal/logging"
	"github.com/usestring/tsharklog/pkg/body"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"TSHARK_PATH", "BODY_CACHE_MAX_ITEMS", "MASK_KEYS", "MASK_MARKER", "LOG_LEVEL", "LOG_COMPRESS", "LOG_MAX_SIZE_MB", "LOG_FILE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "tshark", cfg.TsharkPath)
	assert.Equal(t, DefaultBodyCacheItems, cfg.BodyCacheItems)
	assert.Equal(t, body.DefaultMaskKeys, cfg.MaskKeys)
	assert.Equal(t, body.DefaultMarker, cfg.MaskMarker)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.LogCompress)
	assert.Equal(t, logging.DefaultConfig().MaxSizeMB, cfg.LogMaxSizeMB)
	assert.Empty(t, cfg.LogFile)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("TSHARK_PATH", "/usr/local/bin/tshark")
	t.Setenv("BODY_CACHE_MAX_ITEMS", "0")
	t.Setenv("MASK_KEYS", "api_key, cvv ,,")
	t.Setenv("LOG_COMPRESS", "off")
	t.Setenv("MAX_ARRAY_ITEMS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "/usr/local/bin/tshark", cfg.TsharkPath)
	assert.Equal(t, 0, cfg.BodyCacheItems)
	assert.Equal(t, []string{"api_key", "cvv"}, cfg.MaskKeys)
	assert.False(t, cfg.LogCompress)
	assert.Equal(t, 0, cfg.MaxArrayItems)
}

func TestLoad_DefaultKeysNotShared(t *testing.T) {
	t.Setenv("MASK_KEYS", "")

	cfg := Load()
	cfg.MaskKeys[0] = "changed"
	assert.Equal(t, "password", body.DefaultMaskKeys[0])
}
