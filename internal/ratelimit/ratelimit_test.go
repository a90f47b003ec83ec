package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 3; i++ {
		result, err := limiter.Allow(ctx, "login:1.2.3.4", 3, time.Minute, now)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
		if result.Remaining != 3-i-1 {
			t.Fatalf("expected remaining %d, got %d", 3-i-1, result.Remaining)
		}
	}

	result, err := limiter.Allow(ctx, "login:1.2.3.4", 3, time.Minute, now)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected the fourth request to be denied")
	}
	if !result.Reset.After(now) {
		t.Fatalf("expected reset after now, got %s", result.Reset)
	}
}

func TestMemoryLimiter_WindowRollover(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(ctx, "code:client", 2, time.Minute, now); err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
	}
	result, err := limiter.Allow(ctx, "code:client", 2, time.Minute, now)
	if err != nil {
		t.Fatalf("allow: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected denial inside the window")
	}

	later := now.Add(2 * time.Minute)
	result, err = limiter.Allow(ctx, "code:client", 2, time.Minute, later)
	if err != nil {
		t.Fatalf("allow after rollover: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected the next window to start fresh")
	}
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	limiter := NewMemoryLimiter()
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	if _, err := limiter.Allow(ctx, "login:a", 1, time.Minute, now); err != nil {
		t.Fatalf("allow a: %v", err)
	}
	result, err := limiter.Allow(ctx, "login:b", 1, time.Minute, now)
	if err != nil {
		t.Fatalf("allow b: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected an untouched key to be allowed")
	}
}

func TestKey(t *testing.T) {
	if got := Key("login", "203.0.113.9"); got != "login:203.0.113.9" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := Key("login", " Client "); got != "login:client" {
		t.Fatalf("expected trimmed lowercase client, got %q", got)
	}
	if got := Key("", "client"); got != "" {
		t.Fatalf("expected empty key for empty kind, got %q", got)
	}
	if got := Key("login", ""); got != "" {
		t.Fatalf("expected empty key for empty client, got %q", got)
	}
}

func TestManager_MemoryBackend(t *testing.T) {
	provider := func() SettingsConfig { return SettingsConfig{} }
	manager := NewManager(provider, nil, nil)
	ctx := context.Background()

	for i := 0; i < LoginRule.Limit; i++ {
		result, err := manager.Allow(ctx, "login:client", LoginRule)
		if err != nil {
			t.Fatalf("allow %d: %v", i, err)
		}
		if !result.Allowed {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	result, err := manager.Allow(ctx, "login:client", LoginRule)
	if err != nil {
		t.Fatalf("allow over limit: %v", err)
	}
	if result.Allowed {
		t.Fatalf("expected denial over the login limit")
	}
}

func TestManager_EmptyKeyOrZeroLimitAllowed(t *testing.T) {
	manager := NewManager(func() SettingsConfig { return SettingsConfig{} }, nil, nil)
	ctx := context.Background()

	result, err := manager.Allow(ctx, "", LoginRule)
	if err != nil {
		t.Fatalf("allow empty key: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected empty keys to bypass limiting")
	}

	result, err = manager.Allow(ctx, "login:client", Rule{Limit: 0, Window: time.Minute})
	if err != nil {
		t.Fatalf("allow zero limit: %v", err)
	}
	if !result.Allowed {
		t.Fatalf("expected a zero limit to bypass limiting")
	}
}

func TestLoadSettingsConfig_DisabledWithoutAddr(t *testing.T) {
	t.Setenv(EnvRedisEnabled, "true")
	t.Setenv(EnvRedisAddr, "")

	cfg := LoadSettingsConfig()
	if cfg.RedisEnabled {
		t.Fatalf("expected redis to be disabled without an address")
	}
	if cfg.RedisPrefix != DefaultRedisPrefix {
		t.Fatalf("expected default prefix, got %q", cfg.RedisPrefix)
	}
}

func TestLoadSettingsConfig_FromEnv(t *testing.T) {
	t.Setenv(EnvRedisEnabled, "1")
	t.Setenv(EnvRedisAddr, "localhost:6379")
	t.Setenv(EnvRedisDB, "3")
	t.Setenv(EnvRedisPrefix, "test:rl")

	cfg := LoadSettingsConfig()
	if !cfg.RedisEnabled {
		t.Fatalf("expected redis to be enabled")
	}
	if cfg.RedisAddr != "localhost:6379" || cfg.RedisDB != 3 || cfg.RedisPrefix != "test:rl" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
