package service

import (
	"log"
	"sync"
	"time"

	"matchday/internal/metrics"
)

// CircuitState is the state of a gateway circuit breaker.
type CircuitState int

const (
	// StateClosed lets every call through.
	StateClosed CircuitState = iota
	// StateHalfOpen lets one probe call through after the cooldown.
	StateHalfOpen
	// StateOpen rejects calls until the cooldown elapses.
	StateOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// CircuitBreaker stops calling a push gateway after too many consecutive
// transient failures. A nil *CircuitBreaker always allows calls.
type CircuitBreaker struct {
	maxFailures int
	cooldown    time.Duration
	gateway     string
	metrics     *metrics.NotificationMetrics
	now         func() time.Time

	mu            sync.Mutex
	state         CircuitState
	failures      int
	openedAt      time.Time
	probeInFlight bool
}

// NewCircuitBreaker returns nil when maxFailures <= 0 (breaker disabled).
func NewCircuitBreaker(gateway string, maxFailures int, cooldown time.Duration, m *metrics.NotificationMetrics) *CircuitBreaker {
	if maxFailures <= 0 {
		return nil
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	cb := &CircuitBreaker{
		maxFailures: maxFailures,
		cooldown:    cooldown,
		gateway:     gateway,
		metrics:     m,
		now:         time.Now,
	}
	m.UpdateCircuitBreakerState(gateway, int(StateClosed))
	return cb
}

// Allow reports whether a call may proceed. In half-open state only one
// probe is admitted until its result is recorded.
func (cb *CircuitBreaker) Allow() bool {
	if cb == nil {
		return true
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return false
		}
		cb.setState(StateHalfOpen)
		cb.probeInFlight = true
		return true
	case StateHalfOpen:
		if cb.probeInFlight {
			return false
		}
		cb.probeInFlight = true
		return true
	default:
		return false
	}
}

// RecordSuccess closes the circuit. Any answer from the gateway counts,
// including a permanent token rejection.
func (cb *CircuitBreaker) RecordSuccess() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures = 0
	cb.probeInFlight = false
	if cb.state != StateClosed {
		cb.setState(StateClosed)
	}
}

// RecordFailure counts a transient failure and opens the circuit at the threshold.
func (cb *CircuitBreaker) RecordFailure() {
	if cb == nil {
		return
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.probeInFlight = false
	switch cb.state {
	case StateHalfOpen:
		cb.open()
	case StateClosed:
		if cb.failures >= cb.maxFailures {
			cb.open()
		}
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	if cb == nil {
		return StateClosed
	}
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// open must be called with mu held.
func (cb *CircuitBreaker) open() {
	cb.openedAt = cb.now()
	cb.setState(StateOpen)
}

// setState must be called with mu held.
func (cb *CircuitBreaker) setState(s CircuitState) {
	if cb.state == s {
		return
	}
	log.Printf("[CircuitBreaker] %s: %s -> %s (failures=%d)", cb.gateway, cb.state, s, cb.failures)
	cb.state = s
	cb.metrics.UpdateCircuitBreakerState(cb.gateway, int(s))
}
