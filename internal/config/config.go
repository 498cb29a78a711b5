package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the core runtime configuration for the service.
// Values are primarily sourced from environment variables, with
// sensible defaults where appropriate. See .env.example.
type Config struct {
	ListenAddr  string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// KeyExpiryDays is the lifetime of newly issued API keys.
	KeyExpiryDays int

	// SummaryCacheTTL is how long cached event summaries stay valid.
	SummaryCacheTTL time.Duration

	// SessionTTL is the lifetime of bearer tokens minted at login.
	SessionTTL time.Duration

	// RateLimitRequests is the number of collect calls allowed per key
	// within RateLimitWindow. Zero disables the limiter.
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// Load reads configuration from environment variables and applies defaults.
func Load() *Config {
	cfg := &Config{
		ListenAddr:      getenv("APP_LISTEN_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("APP_DATABASE_URL"),
		RedisAddr:       getenv("APP_REDIS_ADDR", "localhost:6379"),
		RedisPassword:   os.Getenv("APP_REDIS_PASSWORD"),
		RedisDB:         0,
		KeyExpiryDays:   365,
		SummaryCacheTTL: time.Hour,
		SessionTTL:      24 * time.Hour,

		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
	}

	if v := os.Getenv("APP_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RedisDB = n
		}
	}
	if v := os.Getenv("APP_KEY_EXPIRY_DAYS"); v != "" {
		if days, err := strconv.Atoi(v); err == nil && days > 0 {
			cfg.KeyExpiryDays = days
		}
	}
	if v := os.Getenv("APP_SUMMARY_CACHE_TTL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.SummaryCacheTTL = time.Duration(secs) * time.Second
		}
	}
	if v := os.Getenv("APP_SESSION_TTL_HOURS"); v != "" {
		if hours, err := strconv.Atoi(v); err == nil && hours > 0 {
			cfg.SessionTTL = time.Duration(hours) * time.Hour
		}
	}
	if v := os.Getenv("APP_RATE_LIMIT_REQUESTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.RateLimitRequests = n
		}
	}
	if v := os.Getenv("APP_RATE_LIMIT_WINDOW_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.RateLimitWindow = time.Duration(secs) * time.Second
		}
	}

	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
