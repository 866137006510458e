package cache

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

type CircuitBreakerState int

const (
	CircuitBreakerClosed CircuitBreakerState = iota
	CircuitBreakerOpen
	CircuitBreakerHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitBreakerOpen:
		return "open"
	case CircuitBreakerHalfOpen:
		return "half-open"
	default:
		return "closed"
	}
}

type CircuitBreakerConfig struct {
	MaxFailures      int           `json:"max_failures"`
	Timeout          time.Duration `json:"timeout"`
	HalfOpenMaxCalls int           `json:"half_open_max_calls"`
}

func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		Timeout:          30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// CircuitBreaker stops calling Redis after MaxFailures consecutive errors.
// Once Timeout has elapsed it lets trial calls through (half-open) and
// closes again after HalfOpenMaxCalls of them succeed.
type CircuitBreaker struct {
	mu       sync.Mutex
	cfg      CircuitBreakerConfig
	state    CircuitBreakerState
	failures int
	trials   int
	openedAt time.Time
	now      func() time.Time
}

func NewCircuitBreaker(config *CircuitBreakerConfig) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	return &CircuitBreaker{cfg: *config, now: time.Now}
}

func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.allow() {
		return ErrCircuitBreakerOpen
	}

	if err := fn(); err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitBreakerOpen:
		if cb.now().Sub(cb.openedAt) < cb.cfg.Timeout {
			return false
		}
		cb.state = CircuitBreakerHalfOpen
		cb.trials = 0
		return true
	case CircuitBreakerHalfOpen:
		return cb.trials < cb.cfg.HalfOpenMaxCalls
	default:
		return true
	}
}

func (cb *CircuitBreaker) onFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	if cb.state == CircuitBreakerHalfOpen || cb.failures >= cb.cfg.MaxFailures {
		cb.trip()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = CircuitBreakerOpen
	cb.openedAt = cb.now()
	cb.trials = 0
}

func (cb *CircuitBreaker) onSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitBreakerHalfOpen:
		cb.trials++
		if cb.trials >= cb.cfg.HalfOpenMaxCalls {
			cb.state = CircuitBreakerClosed
			cb.failures = 0
			cb.trials = 0
		}
	case CircuitBreakerClosed:
		cb.failures = 0
	}
}

func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) GetStats() map[string]interface{} {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return map[string]interface{}{
		"state":           cb.state.String(),
		"failure_count":   cb.failures,
		"trial_count":     cb.trials,
		"opened_at":       cb.openedAt.Unix(),
		"max_failures":    cb.cfg.MaxFailures,
		"timeout_seconds": cb.cfg.Timeout.Seconds(),
	}
}
