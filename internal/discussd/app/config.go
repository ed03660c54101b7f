package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Mode         string // Authorization mode (hmac, session) (default: hmac)
	SharedSecret string // Required in hmac mode: secret signing the request proof

	BotIdentifier string // Required in hmac mode: bot account handle or DID
	BotPassword   string // Required in hmac mode: bot account app password

	PDSURL     string // Optional: PDS base URL (default: https://bsky.social)
	AppViewURL string // Optional: AppView base URL (default: https://public.api.bsky.app)

	ProofWindow time.Duration // Accepted request timestamp drift in hmac mode (default: 5m)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		Mode:                getEnvOrDefault("DISCUSSD_MODE", "hmac"),
		SharedSecret:        os.Getenv("DISCUSSD_SHARED_SECRET"),
		BotIdentifier:       os.Getenv("DISCUSSD_BOT_IDENTIFIER"),
		BotPassword:         os.Getenv("DISCUSSD_BOT_PASSWORD"),
		PDSURL:              os.Getenv("DISCUSSD_PDS_URL"),
		AppViewURL:          os.Getenv("DISCUSSD_APPVIEW_URL"),
		ProofWindow:         getEnvDurationOrDefault("DISCUSSD_PROOF_WINDOW", 5*time.Minute),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are taken as seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
