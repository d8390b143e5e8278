package ratelimit

import (
	"context"
	"fmt"
	"time"

	"billetter/internal/shared/config"
	"billetter/internal/shared/constants"

	"github.com/redis/go-redis/v9"
)

// Scope separates the public and the authenticated budgets.
type Scope string

const (
	ScopePublic Scope = "public"
	ScopeUser   Scope = "user"
)

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// RateLimiter is a fixed-window limiter over Redis INCR + EXPIRE.
type RateLimiter struct {
	client *redis.Client
	config config.RateLimitConfig
}

func NewRateLimiter(client *redis.Client, cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: cfg,
	}
}

// IsAllowed checks one request against its scope budget. Redis failures
// fail open: throttling is protection, not correctness.
func (r *RateLimiter) IsAllowed(ctx context.Context, client string, scope Scope) (*Result, error) {
	limit := r.limitFor(scope)
	if !r.config.Enabled {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := constants.BuildRateLimitKey(string(scope), client)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	count := int(incr.Val())
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(r.config.WindowDuration).Unix(),
	}, nil
}

func (r *RateLimiter) limitFor(scope Scope) int {
	if scope == ScopeUser {
		return r.config.UserRequests
	}
	return r.config.PublicRequests
}
