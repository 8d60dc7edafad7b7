package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port          int
	DatabaseURL   string
	CacheSize     int
	LogLevel      string
	GenerateDelay time.Duration
	RefScheme     string
	RefLabel      string
	QRMargin      bool
}

// Reference schemes accepted in REF_SCHEME
const (
	SchemeTimestamp = "timestamp"
	SchemeCounter   = "counter"
)

func LoadConfig() Config {
	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	cacheSize, _ := strconv.Atoi(getEnv("CACHE_SIZE", "1000"))
	if cacheSize <= 0 {
		cacheSize = 1000
	}

	delay, err := time.ParseDuration(getEnv("GENERATE_DELAY", "1s"))
	if err != nil || delay < 0 {
		delay = time.Second
	}

	margin, err := strconv.ParseBool(getEnv("QR_MARGIN", "true"))
	if err != nil {
		margin = true
	}

	scheme := getEnv("REF_SCHEME", SchemeTimestamp)
	if scheme != SchemeCounter {
		scheme = SchemeTimestamp
	}

	return Config{
		Port:          port,
		DatabaseURL:   getEnv("DATABASE_URL", "file::memory:?cache=shared"),
		CacheSize:     cacheSize,
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		GenerateDelay: delay,
		RefScheme:     scheme,
		RefLabel:      getEnv("REF_LABEL", "qr"),
		QRMargin:      margin,
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
