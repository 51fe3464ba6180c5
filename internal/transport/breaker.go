package transport

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of one host's circuit.
type BreakerState int

const (
	// BreakerClosed lets requests through.
	BreakerClosed BreakerState = iota
	// BreakerOpen fails requests without sending them.
	BreakerOpen
	// BreakerHalfOpen lets a single probe through.
	BreakerHalfOpen
)

// String returns the string representation of a breaker state.
func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

const (
	// DefaultFailureThreshold is the number of consecutive server failures that opens a circuit.
	DefaultFailureThreshold = 5
	// DefaultRecoveryTimeout is how long a circuit stays open before probing.
	DefaultRecoveryTimeout = 30 * time.Second
)

// ErrCircuitOpen is returned for requests to a host whose circuit is open.
var ErrCircuitOpen = errors.New("transport: circuit breaker is open")

// BreakerConfig configures the per-host circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	// A negative value disables the breaker. Default: 5
	FailureThreshold int
	// RecoveryTimeout is how long the circuit stays open before a probe is allowed.
	// Default: 30 seconds
	RecoveryTimeout time.Duration
}

// DefaultBreakerConfig returns the defaults used by DefaultConfig.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		FailureThreshold: DefaultFailureThreshold,
		RecoveryTimeout:  DefaultRecoveryTimeout,
	}
}

type circuit struct {
	state             BreakerState
	consecutiveErrors int
	lastStateChange   time.Time
	probing           bool
}

// Breaker tracks consecutive server failures per host and fails fast once a
// host crosses the threshold. A nil *Breaker allows everything.
type Breaker struct {
	mu       sync.Mutex
	circuits map[string]*circuit
	config   BreakerConfig
}

// NewBreaker returns a breaker for cfg, or nil when cfg disables it.
func NewBreaker(cfg BreakerConfig) *Breaker {
	if cfg.FailureThreshold < 0 {
		return nil
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = DefaultRecoveryTimeout
	}
	return &Breaker{
		circuits: make(map[string]*circuit),
		config:   cfg,
	}
}

// Allow returns ErrCircuitOpen when host must not be contacted.
func (b *Breaker) Allow(host string) error {
	if b == nil {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuit(host)
	switch c.state {
	case BreakerOpen:
		if time.Since(c.lastStateChange) < b.config.RecoveryTimeout {
			return ErrCircuitOpen
		}
		c.state = BreakerHalfOpen
		c.lastStateChange = time.Now()
		c.probing = true
		return nil
	case BreakerHalfOpen:
		if c.probing {
			return ErrCircuitOpen
		}
		c.probing = true
		return nil
	default:
		return nil
	}
}

// RecordSuccess closes host's circuit.
func (b *Breaker) RecordSuccess(host string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuit(host)
	if c.state != BreakerClosed {
		c.state = BreakerClosed
		c.lastStateChange = time.Now()
	}
	c.consecutiveErrors = 0
	c.probing = false
}

// Release ends a request that produced no verdict on host's health, such as
// one cancelled by its caller. A half-open circuit lets the next probe through.
func (b *Breaker) Release(host string) {
	if b == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if c, ok := b.circuits[host]; ok {
		c.probing = false
	}
}

// RecordFailure counts a server failure for host and reports whether the
// circuit opened as a result.
func (b *Breaker) RecordFailure(host string) bool {
	if b == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c := b.circuit(host)
	c.consecutiveErrors++
	switch c.state {
	case BreakerHalfOpen:
		c.state = BreakerOpen
		c.lastStateChange = time.Now()
		c.probing = false
		return true
	case BreakerClosed:
		if c.consecutiveErrors >= b.config.FailureThreshold {
			c.state = BreakerOpen
			c.lastStateChange = time.Now()
			return true
		}
	}
	return false
}

// State returns host's current state.
func (b *Breaker) State(host string) BreakerState {
	if b == nil {
		return BreakerClosed
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.circuits[host]
	if !ok {
		return BreakerClosed
	}
	if c.state == BreakerOpen && time.Since(c.lastStateChange) >= b.config.RecoveryTimeout {
		return BreakerHalfOpen
	}
	return c.state
}

// Must be called with mu held.
func (b *Breaker) circuit(host string) *circuit {
	c, ok := b.circuits[host]
	if !ok {
		c = &circuit{state: BreakerClosed, lastStateChange: time.Now()}
		b.circuits[host] = c
	}
	return c
}
