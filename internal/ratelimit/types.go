// Package ratelimit throttles authentication-sensitive endpoints: login
// attempts and one-time-code requests. Limits are fixed windows keyed by
// client address, backed by Redis when configured and process memory
// otherwise.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter provides fixed-window rate limit checks.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error)
}

// Rule pairs a limit with its window.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Default rules for the two protected endpoint classes.
var (
	// LoginRule bounds credential-guessing attempts per client.
	LoginRule = Rule{Limit: 10, Window: time.Minute}
	// CodeRequestRule bounds one-time-code issuance per client. Every request
	// sends an email, so this is tighter than the login rule.
	CodeRequestRule = Rule{Limit: 3, Window: time.Minute}
)
