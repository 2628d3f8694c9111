package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	ClipboardSurface = "surface"
	ClipboardSystem  = "system"
)

type Config struct {
	DatabaseURL    string
	LogLevel       string
	Debug          bool
	ServiceName    string
	Environment    string
	Hostname       string
	ServerPort     string
	WorkerCount    int
	BatchSize      int
	AllowedOrigins []string
	GeminiAPIKeys  []string
	GeminiModel    string
	RelayURL       string
	RelayTimeout   time.Duration
	RelayTokens    []string
	RelayTokenTTL  time.Duration
	ClipboardMode  string
}

// splitList splits a comma-separated value and drops empty entries
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}

func LoadConfig() (*Config, error) {
	serverPort := getenv("SERVER_PORT", "8080")

	allowedOrigins := []string{"*"}
	if ao := splitList(os.Getenv("ALLOWED_ORIGINS")); len(ao) > 0 {
		allowedOrigins = ao
	}

	relayTimeout, err := durationEnv("RELAY_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}
	if relayTimeout == 0 {
		return nil, fmt.Errorf("RELAY_TIMEOUT must be positive")
	}

	relayTokenTTL, err := durationEnv("RELAY_TOKEN_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	clipboardMode := strings.ToLower(getenv("CLIPBOARD_MODE", ClipboardSurface))
	if clipboardMode != ClipboardSurface && clipboardMode != ClipboardSystem {
		return nil, fmt.Errorf("CLIPBOARD_MODE must be %q or %q, got %q", ClipboardSurface, ClipboardSystem, clipboardMode)
	}

	workerCount := 10 // default value
	if wc := os.Getenv("WORKER_COUNT"); wc != "" {
		if parsed, err := strconv.Atoi(wc); err == nil && parsed > 0 {
			workerCount = parsed
		}
	}

	batchSize := 100 // default value
	if bs := os.Getenv("BATCH_SIZE"); bs != "" {
		if parsed, err := strconv.Atoi(bs); err == nil && parsed > 0 {
			batchSize = parsed
		}
	}

	return &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		Debug:          getenv("DEBUG", "false") == "true",
		ServiceName:    getenv("SERVICE_NAME", "design-assistant"),
		Hostname:       getenv("HOSTNAME", "design-assistant"),
		Environment:    getenv("ENVIRONMENT", "development"),
		ServerPort:     serverPort,
		WorkerCount:    workerCount,
		BatchSize:      batchSize,
		AllowedOrigins: allowedOrigins,
		GeminiAPIKeys:  splitList(os.Getenv("GEMINI_API_KEYS")),
		GeminiModel:    getenv("GEMINI_MODEL", "gemini-2.0-flash-lite"),
		RelayURL:       getenv("RELAY_URL", "http://localhost:"+serverPort+"/relay/generate"),
		RelayTimeout:   relayTimeout,
		RelayTokens:    splitList(os.Getenv("RELAY_TOKENS")),
		RelayTokenTTL:  relayTokenTTL,
		ClipboardMode:  clipboardMode,
	}, nil
}
