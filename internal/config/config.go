package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Addr        string
	DatabaseURL string
	RedisURL    string
	// SyncToken is the shared secret clients present when connecting.
	// Stored as a bcrypt hash when HEMLIST_SYNC_TOKEN_HASH is set,
	// otherwise hashed at startup from the plaintext value.
	SyncToken     string
	SyncTokenHash string
	// Bot configuration - empty URL disables the external reconciler
	BotURL            string
	BotHeadless       bool
	BotActionTimeout  time.Duration
	ReconcileInterval time.Duration
	MaxConvergeRounds int
}

func Load() Config {
	return Config{
		Addr:              getenv("HEMLIST_ADDR", ":8711"),
		DatabaseURL:       getenv("DATABASE_URL", ""),
		RedisURL:          getenv("REDIS_URL", ""),
		SyncToken:         getenv("HEMLIST_SYNC_TOKEN", "hemlist-dev-token"),
		SyncTokenHash:     getenv("HEMLIST_SYNC_TOKEN_HASH", ""),
		BotURL:            getenv("HEMLIST_BOT_URL", ""),
		BotHeadless:       getenvBool("HEMLIST_BOT_HEADLESS", true),
		BotActionTimeout:  time.Duration(getenvInt("HEMLIST_BOT_ACTION_TIMEOUT_SECONDS", 30)) * time.Second,
		ReconcileInterval: time.Duration(getenvInt("HEMLIST_RECONCILE_SECONDS", 60)) * time.Second,
		MaxConvergeRounds: getenvInt("HEMLIST_MAX_CONVERGE_ROUNDS", 5),
	}
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
