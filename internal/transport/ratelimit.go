package transport

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BackoffCooldownPeriod is how long after the last 429 before the full rate is restored.
	BackoffCooldownPeriod = 5 * time.Minute
	// MinRPSMultiplier is the minimum rate reduction (0.25 = 25% of original).
	MinRPSMultiplier = 0.25
)

// RateLimiterConfig defines per-host pacing.
type RateLimiterConfig struct {
	// DefaultRPS is requests per second for every host (0 = unlimited).
	DefaultRPS float64
	// Burst is the token bucket size. Default: 1
	Burst int
}

// DefaultRateLimiterConfig returns a conservative pace well inside the
// per-user quotas of both Google APIs.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		DefaultRPS: 5.0,
		Burst:      1,
	}
}

// RateLimiter manages per-host request pacing using a token bucket per host.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	backoff  map[string]*backoffState
	config   RateLimiterConfig
}

type backoffState struct {
	lastError         time.Time
	consecutiveErrors int
	originalRPS       float64
}

// NewRateLimiter creates a rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		backoff:  make(map[string]*backoffState),
		config:   cfg,
	}
}

// Wait blocks until host may send another request or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl == nil {
		return nil
	}
	limiter := rl.limiter(host)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// limiter returns the limiter for host, creating it on first use. Nil means unlimited.
func (rl *RateLimiter) limiter(host string) *rate.Limiter {
	host = hostname(host)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, ok := rl.limiters[host]; ok {
		return l
	}
	if rl.config.DefaultRPS <= 0 {
		return nil
	}
	l := rate.NewLimiter(rate.Limit(rl.config.DefaultRPS), rl.config.Burst)
	rl.limiters[host] = l
	return l
}

// Limit returns the current pace for host, 0 when unlimited.
func (rl *RateLimiter) Limit(host string) float64 {
	l := rl.limiter(host)
	if l == nil {
		return 0
	}
	return float64(l.Limit())
}

// RecordRateLimited slows host down after a 429 and returns the new pace.
// 1 error: 75%, 2 errors: 50%, 3+ errors: 25% of the configured rate.
func (rl *RateLimiter) RecordRateLimited(host string) float64 {
	host = hostname(host)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters[host]
	if !ok {
		return 0
	}
	state, ok := rl.backoff[host]
	if !ok {
		state = &backoffState{originalRPS: rl.config.DefaultRPS}
		rl.backoff[host] = state
	}
	state.lastError = time.Now()
	state.consecutiveErrors++

	factor := MinRPSMultiplier
	switch state.consecutiveErrors {
	case 1:
		factor = 0.75
	case 2:
		factor = 0.5
	}
	newRPS := state.originalRPS * factor
	l.SetLimit(rate.Limit(newRPS))
	return newRPS
}

// RecordSuccess restores the configured pace once the cooldown has passed.
// It reports whether the pace was restored.
func (rl *RateLimiter) RecordSuccess(host string) bool {
	host = hostname(host)

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok || time.Since(state.lastError) < BackoffCooldownPeriod {
		return false
	}
	if l, ok := rl.limiters[host]; ok {
		l.SetLimit(rate.Limit(state.originalRPS))
	}
	delete(rl.backoff, host)
	return true
}

// hostname strips the port from a request host.
func hostname(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
