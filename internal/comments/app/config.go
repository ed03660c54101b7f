package app

import (
	"os"
	"path/filepath"
	"strconv"
)

// Create modes select how missing discussion posts get minted.
const (
	CreateModeDirect          = "direct"
	CreateModeEndpointHMAC    = "endpoint-hmac"
	CreateModeEndpointSession = "endpoint-session"
)

type Config struct {
	PDSURL     string // Optional: PDS base URL (default: https://bsky.social)
	AppViewURL string // Optional: AppView base URL (default: https://public.api.bsky.app)

	// BotAuthor restricts discussion post search to the bot account (handle
	// or DID). Empty searches all authors.
	BotAuthor string

	CreateMode   string // Create mode (direct, endpoint-hmac, endpoint-session) (default: direct)
	EndpointURL  string // Required in endpoint modes: post-creation endpoint URL
	SharedSecret string // Required in endpoint-hmac mode: proof signing secret

	DatabaseFile string // Path to the SQLite state file (default: under the user config dir)
	ThreadDepth  int    // Reply levels fetched per thread (default: 10)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: warn)
	LogFormat string // Log format (json, text) (default: text)
}

func LoadConfig() Config {
	return Config{
		PDSURL:       os.Getenv("BLUNIVERSAL_PDS_URL"),
		AppViewURL:   os.Getenv("BLUNIVERSAL_APPVIEW_URL"),
		BotAuthor:    os.Getenv("BLUNIVERSAL_BOT_AUTHOR"),
		CreateMode:   getEnvOrDefault("BLUNIVERSAL_CREATE_MODE", CreateModeDirect),
		EndpointURL:  os.Getenv("BLUNIVERSAL_ENDPOINT_URL"),
		SharedSecret: os.Getenv("BLUNIVERSAL_SHARED_SECRET"),
		DatabaseFile: getEnvOrDefault("BLUNIVERSAL_DATABASE_FILE", defaultDatabaseFile()),
		ThreadDepth:  getEnvIntOrDefault("BLUNIVERSAL_THREAD_DEPTH", 10),
		Env:          getEnvOrDefault("ENV", "dev"),
		LogLevel:     getEnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:    getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// defaultDatabaseFile places state under the user config dir, falling back
// to the working directory when none is available.
func defaultDatabaseFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "comments.db"
	}
	return filepath.Join(dir, "bluniversal-comments", "comments.db")
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
