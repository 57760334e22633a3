package config

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all configurable server parameters.
type Config struct {
	Port          int    `json:"port"`
	MaxNameLength int    `json:"max_name_length"`
	ChatLimit     int    `json:"chat_limit"`
	HandSize      int    `json:"hand_size"`
	DeckCopies    int    `json:"deck_copies"`

	// RoomCodeAttempts bounds rejection sampling when generating a room code.
	RoomCodeAttempts int `json:"room_code_attempts"`

	// RetentionHours is how long a game lives before it is removed (soft TTL).
	RetentionHours int `json:"retention_hours"`

	// FreeSessionMinutes is the free-tier session length; 0 disables the timer.
	FreeSessionMinutes int `json:"free_session_minutes"`

	// JanitorIntervalMinutes is how often expired games are swept from stores
	// without native TTL support.
	JanitorIntervalMinutes int `json:"janitor_interval_minutes"`

	// UploadDir is where media proofs and chat attachments are written.
	UploadDir string `json:"upload_dir"`
	// UploadMaxMB caps a single media upload.
	UploadMaxMB int `json:"upload_max_mb"`

	// DatabaseURL selects the Postgres store when set (postgres://...).
	DatabaseURL string `json:"-"`
	// RedisURL selects the Redis store when set (redis://...). DatabaseURL wins
	// if both are set. With neither, games live in memory only.
	RedisURL string `json:"-"`

	// AuthBaseURL is the identity provider base URL for JWKS validation.
	// Empty means all clients are treated as free tier.
	AuthBaseURL string `json:"-"`
}

// Retention returns RetentionHours as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionHours) * time.Hour
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Port:                   8080,
		MaxNameLength:          24,
		ChatLimit:              100,
		HandSize:               7,
		DeckCopies:             3,
		RoomCodeAttempts:       32,
		RetentionHours:         24,
		FreeSessionMinutes:     30,
		JanitorIntervalMinutes: 10,
		UploadDir:              "uploads",
		UploadMaxMB:            100,
	}
}

// Load reads configuration from an optional config.json file,
// then applies environment variable overrides. Fields not set
// in either source retain their default values.
func Load() *Config {
	cfg := Defaults()

	if f, err := os.Open("config.json"); err == nil {
		defer f.Close()
		if err := json.NewDecoder(f).Decode(cfg); err != nil {
			log.Printf("Warning: failed to parse config.json: %v", err)
		}
	}

	overrideInt(&cfg.Port, "PORT")
	overrideInt(&cfg.MaxNameLength, "MAX_NAME_LENGTH")
	overrideInt(&cfg.ChatLimit, "CHAT_LIMIT")
	overrideInt(&cfg.HandSize, "HAND_SIZE")
	overrideInt(&cfg.DeckCopies, "DECK_COPIES")
	overrideInt(&cfg.RoomCodeAttempts, "ROOM_CODE_ATTEMPTS")
	overrideInt(&cfg.RetentionHours, "RETENTION_HOURS")
	overrideInt(&cfg.FreeSessionMinutes, "FREE_SESSION_MINUTES")
	overrideInt(&cfg.JanitorIntervalMinutes, "JANITOR_INTERVAL_MINUTES")
	overrideInt(&cfg.UploadMaxMB, "UPLOAD_MAX_MB")
	overrideString(&cfg.UploadDir, "UPLOAD_DIR")
	overrideString(&cfg.DatabaseURL, "DATABASE_URL")
	overrideString(&cfg.RedisURL, "REDIS_URL")
	overrideString(&cfg.AuthBaseURL, "AUTH_BASE_URL")

	return cfg
}

func overrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*field = n
		} else {
			log.Printf("Warning: invalid value for %s: %q", envKey, val)
		}
	}
}

func overrideString(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}
