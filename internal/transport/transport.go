// Package transport builds the HTTP round-tripper shared by the YouTube and
// Sheets sessions. It pools connections, paces requests per host and stops
// calling hosts that keep failing.
package transport

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"ytsheets/internal/logging"
)

// Config configures the shared transport.
type Config struct {
	// UserAgent is set on every request that does not carry one.
	UserAgent string

	// RateLimiter paces requests per host.
	RateLimiter RateLimiterConfig

	// Breaker fails requests fast after repeated server errors from a host.
	Breaker BreakerConfig

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	// Default: 10
	MaxIdleConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	// Default: 90 seconds
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults for the Google APIs.
func DefaultConfig() Config {
	return Config{
		UserAgent:           "ytsheets/1.0",
		RateLimiter:         DefaultRateLimiterConfig(),
		Breaker:             DefaultBreakerConfig(),
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// Transport is a rate-limited http.RoundTripper.
type Transport struct {
	base      http.RoundTripper
	limiter   *RateLimiter
	breaker   *Breaker
	userAgent string
	logger    hclog.Logger
}

// New wraps a pooled http.Transport with pacing from cfg.
func New(cfg Config, logger hclog.Logger) *Transport {
	if cfg.MaxIdleConnsPerHost == 0 {
		cfg.MaxIdleConnsPerHost = DefaultConfig().MaxIdleConnsPerHost
	}
	if cfg.IdleConnTimeout == 0 {
		cfg.IdleConnTimeout = DefaultConfig().IdleConnTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	base.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost
	base.IdleConnTimeout = cfg.IdleConnTimeout

	return Wrap(base, cfg, logger)
}

// Wrap adds pacing from cfg in front of base.
func Wrap(base http.RoundTripper, cfg Config, logger hclog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		base:      base,
		limiter:   NewRateLimiter(cfg.RateLimiter),
		breaker:   NewBreaker(cfg.Breaker),
		userAgent: cfg.UserAgent,
		logger:    logging.OrNull(logger).Named("transport"),
	}
}

// RoundTrip waits for the request's host budget, then forwards the request.
// A 429 response slows the host down until requests succeed again. Network
// errors and 5xx responses count towards opening the host's circuit; any
// other response proves the host is up. Requests that end without a
// response from a live host leave the circuit as it was.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Hostname()
	if err := t.breaker.Allow(host); err != nil {
		return nil, err
	}
	settled := false
	defer func() {
		if !settled {
			t.breaker.Release(host)
		}
	}()

	if err := t.limiter.Wait(req.Context(), req.URL.Host); err != nil {
		return nil, err
	}

	if t.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		if req.Context().Err() == nil {
			t.recordFailure(host)
			settled = true
		}
		return nil, err
	}

	settled = true
	switch {
	case resp.StatusCode >= 500:
		t.recordFailure(host)
	case resp.StatusCode == http.StatusTooManyRequests:
		rps := t.limiter.RecordRateLimited(req.URL.Host)
		t.logger.Warn("rate limited", "host", host, "rps", rps)
		t.breaker.RecordSuccess(host)
	default:
		if resp.StatusCode < 400 && t.limiter.RecordSuccess(req.URL.Host) {
			t.logger.Info("rate restored", "host", host, "rps", t.limiter.Limit(req.URL.Host))
		}
		t.breaker.RecordSuccess(host)
	}
	return resp, nil
}

func (t *Transport) recordFailure(host string) {
	if t.breaker.RecordFailure(host) {
		t.logger.Warn("circuit opened", "host", host)
	}
}

// Breaker exposes the circuit state. It is nil when disabled.
func (t *Transport) Breaker() *Breaker {
	return t.breaker
}

// Limiter exposes the pacing state.
func (t *Transport) Limiter() *RateLimiter {
	return t.limiter
}
