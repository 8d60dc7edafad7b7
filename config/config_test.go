package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "CACHE_SIZE", "LOG_LEVEL", "GENERATE_DELAY", "REF_SCHEME", "REF_LABEL", "QR_MARGIN"} {
		t.Setenv(key, "")
	}
	// t.Setenv cannot unset, so empty values exercise the fallback paths
	cfg := LoadConfig()

	assert.Equal(t, 0, cfg.Port)
	assert.Equal(t, 1000, cfg.CacheSize)
	assert.Equal(t, time.Second, cfg.GenerateDelay)
	assert.Equal(t, SchemeTimestamp, cfg.RefScheme)
	assert.True(t, cfg.QRMargin)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "qrtag.db")
	t.Setenv("CACHE_SIZE", "25")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("GENERATE_DELAY", "250ms")
	t.Setenv("REF_SCHEME", "counter")
	t.Setenv("REF_LABEL", "promo")
	t.Setenv("QR_MARGIN", "false")

	cfg := LoadConfig()

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "qrtag.db", cfg.DatabaseURL)
	assert.Equal(t, 25, cfg.CacheSize)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 250*time.Millisecond, cfg.GenerateDelay)
	assert.Equal(t, SchemeCounter, cfg.RefScheme)
	assert.Equal(t, "promo", cfg.RefLabel)
	assert.False(t, cfg.QRMargin)
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("GENERATE_DELAY", "soon")
	t.Setenv("REF_SCHEME", "random")
	t.Setenv("QR_MARGIN", "maybe")
	t.Setenv("CACHE_SIZE", "-3")

	cfg := LoadConfig()

	assert.Equal(t, time.Second, cfg.GenerateDelay)
	assert.Equal(t, SchemeTimestamp, cfg.RefScheme)
	assert.True(t, cfg.QRMargin)
	assert.Equal(t, 1000, cfg.CacheSize)
}
