package clients

import (
	"sync"
	"time"
)

// State is the position of a circuit breaker.
type State int

const (
	// StateClosed lets every request through.
	StateClosed State = iota

	// StateOpen rejects requests until the cool-down elapses.
	StateOpen

	// StateHalfOpen lets a bounded number of probe requests through.
	StateHalfOpen
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker behavior.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures that opens the circuit.
	MaxFailures int

	// Timeout is the cool-down spent open before probing.
	Timeout time.Duration

	// HalfOpenLimit is both the number of concurrent probes and the number of
	// consecutive probe successes needed to close the circuit.
	HalfOpenLimit int
}

// BreakerSnapshot is a point-in-time view of a circuit breaker.
type BreakerSnapshot struct {
	State    State
	Failures int
	OpenedAt time.Time
}

// CircuitBreaker guards a downstream dependency.
//
//	closed --MaxFailures--> open --Timeout--> half-open --HalfOpenLimit successes--> closed
//	                                          half-open --any failure-------------> open
type CircuitBreaker struct {
	cfg CircuitBreakerConfig
	now func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	probes   int
	passed   int
	openedAt time.Time
	onChange func(from, to State)
}

// NewCircuitBreaker creates a closed circuit breaker.
// Non-positive limits are raised to 1.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.MaxFailures < 1 {
		cfg.MaxFailures = 1
	}

	if cfg.HalfOpenLimit < 1 {
		cfg.HalfOpenLimit = 1
	}

	return &CircuitBreaker{cfg: cfg, now: time.Now}
}

// OnStateChange registers fn to run after every transition.
// fn runs on the goroutine that caused the transition, outside the breaker lock.
func (cb *CircuitBreaker) OnStateChange(fn func(from, to State)) {
	cb.mu.Lock()
	cb.onChange = fn
	cb.mu.Unlock()
}

// Allow reports whether a request may proceed. A caller that was allowed must
// report the outcome with RecordSuccess or RecordFailure.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()

	var allowed bool
	var from State
	changed := false

	switch cb.state {
	case StateClosed:
		allowed = true
	case StateOpen:
		if cb.now().Sub(cb.openedAt) >= cb.cfg.Timeout {
			from, changed = cb.setLocked(StateHalfOpen)
			cb.probes = 1
			allowed = true
		}
	case StateHalfOpen:
		if cb.probes < cb.cfg.HalfOpenLimit {
			cb.probes++
			allowed = true
		}
	}

	fn := cb.onChange
	cb.mu.Unlock()

	if changed && fn != nil {
		fn(from, StateHalfOpen)
	}

	return allowed
}

// RecordSuccess reports a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()

	var from State
	changed := false

	switch cb.state {
	case StateClosed:
		cb.failures = 0
	case StateHalfOpen:
		cb.probes--
		cb.passed++

		if cb.passed >= cb.cfg.HalfOpenLimit {
			from, changed = cb.setLocked(StateClosed)
		}
	}

	fn := cb.onChange
	cb.mu.Unlock()

	if changed && fn != nil {
		fn(from, StateClosed)
	}
}

// RecordFailure reports a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()

	var from State
	changed := false

	switch cb.state {
	case StateClosed:
		cb.failures++

		if cb.failures >= cb.cfg.MaxFailures {
			from, changed = cb.setLocked(StateOpen)
		}
	case StateHalfOpen:
		from, changed = cb.setLocked(StateOpen)
	case StateOpen:
		cb.openedAt = cb.now()
	}

	fn := cb.onChange
	cb.mu.Unlock()

	if changed && fn != nil {
		fn(from, StateOpen)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.state
}

// Snapshot returns the current state with its counters.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerSnapshot{State: cb.state, Failures: cb.failures, OpenedAt: cb.openedAt}
}

// setLocked moves to next and resets the counters. Must be called with mu held.
func (cb *CircuitBreaker) setLocked(next State) (State, bool) {
	prev := cb.state
	if prev == next {
		return prev, false
	}

	cb.state = next
	cb.failures = 0
	cb.passed = 0

	switch next {
	case StateOpen:
		cb.openedAt = cb.now()
		cb.probes = 0
	case StateClosed:
		cb.probes = 0
		cb.openedAt = time.Time{}
	case StateHalfOpen:
		cb.probes = 0
	}

	return prev, true
}
