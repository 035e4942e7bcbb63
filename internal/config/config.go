package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPort           = "8080"
	DefaultUpstreamURL    = "http://localhost:11434/v1/chat/completions"
	DefaultModel          = "gemma3:12b"
	DefaultRequestTimeout = 240 * time.Second
)

// Config is built once at startup and passed by value; nothing mutates it afterwards.
type Config struct {
	Port string
	// Full chat-completions URL of the inference server.
	UpstreamURL    string
	UpstreamAPIKey string
	Model          string
	RequestTimeout time.Duration
	AllowedOrigin  string
	// Optional YAML file with page title/greeting overrides.
	PageConfig string
	// Logging
	LogLevel string
	LogJSON  bool
}

func Load() Config {
	_ = godotenv.Load()
	return Config{
		Port:           getEnvDefault("PORT", DefaultPort),
		UpstreamURL:    getEnvDefault("UPSTREAM_URL", DefaultUpstreamURL),
		UpstreamAPIKey: os.Getenv("UPSTREAM_API_KEY"),
		Model:          getEnvDefault("MODEL_NAME", DefaultModel),
		RequestTimeout: getEnvDurationDefault("REQUEST_TIMEOUT", DefaultRequestTimeout),
		AllowedOrigin:  getEnvDefault("ALLOWED_ORIGIN", "*"),
		PageConfig:     getEnvDefault("PAGE_CONFIG", "./page.yaml"),
		LogLevel:       getEnvDefault("LOG_LEVEL", "info"),
		LogJSON:        getEnvBoolDefault("LOG_JSON", false),
	}
}

// Addr is the listen address for the configured port.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvDurationDefault accepts a Go duration ("90s", "4m") or a bare number of seconds.
func getEnvDurationDefault(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
