package ratelimit

import (
	"os"
	"strconv"
	"strings"
)

// Environment variables controlling the Redis limiter backend.
const (
	EnvRedisEnabled  = "RATE_LIMIT_REDIS_ENABLED"
	EnvRedisAddr     = "RATE_LIMIT_REDIS_ADDR"
	EnvRedisPassword = "RATE_LIMIT_REDIS_PASSWORD"
	EnvRedisDB       = "RATE_LIMIT_REDIS_DB"
	EnvRedisPrefix   = "RATE_LIMIT_REDIS_PREFIX"
)

// DefaultRedisPrefix namespaces limiter keys in a shared Redis.
const DefaultRedisPrefix = "brewloyal:rl"

// SettingsConfig captures the limiter backend configuration.
type SettingsConfig struct {
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// LoadSettingsConfig loads the limiter backend settings from the environment.
// Redis is used only when explicitly enabled and an address is set.
func LoadSettingsConfig() SettingsConfig {
	cfg := SettingsConfig{
		RedisPrefix: DefaultRedisPrefix,
	}

	cfg.RedisEnabled = parseBoolEnv(os.Getenv(EnvRedisEnabled))
	cfg.RedisAddr = strings.TrimSpace(os.Getenv(EnvRedisAddr))
	cfg.RedisPassword = strings.TrimSpace(os.Getenv(EnvRedisPassword))
	if rawDB := strings.TrimSpace(os.Getenv(EnvRedisDB)); rawDB != "" {
		if db, errParse := strconv.Atoi(rawDB); errParse == nil && db >= 0 {
			cfg.RedisDB = db
		}
	}
	if prefix := strings.TrimSpace(os.Getenv(EnvRedisPrefix)); prefix != "" {
		cfg.RedisPrefix = prefix
	}
	if cfg.RedisAddr == "" {
		cfg.RedisEnabled = false
	}
	return cfg
}

func parseBoolEnv(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
