package payments

import (
	"sync"
	"time"

	"billetter/internal/shared/apperror"
	"billetter/pkg/metrics"
)

// CBState is the circuit breaker state.
type CBState int

const (
	StateClosed CBState = iota
	StateHalfOpen
	StateOpen
)

func (s CBState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half_open"
	case StateOpen:
		return "open"
	}
	return "unknown"
}

// ErrCircuitOpen is returned when the breaker rejects a call without
// reaching the gateway.
var ErrCircuitOpen = apperror.New(apperror.ServiceUnavailable, "Платежный шлюз временно недоступен")

// CircuitBreaker isolates the payment gateway. Closed counts consecutive
// failures; at the threshold it opens and fails fast. After the timeout
// the next call is admitted as a single half-open probe whose outcome
// decides the transition. State lives for the process lifetime, one
// instance per gateway.
type CircuitBreaker struct {
	mu sync.Mutex

	state        CBState
	failureCount int
	lastFailure  time.Time
	probing      bool

	failureThreshold int
	timeout          time.Duration

	now func() time.Time // injectable for tests
}

func NewCircuitBreaker(failureThreshold int, timeout time.Duration) *CircuitBreaker {
	cb := &CircuitBreaker{
		state:            StateClosed,
		failureThreshold: failureThreshold,
		timeout:          timeout,
		now:              time.Now,
	}
	metrics.CircuitBreakerState.Set(0)
	return cb
}

// Allow reports whether a call may proceed. In the open state it admits
// the first caller after the timeout as the half-open probe and rejects
// everyone else.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return nil
	case StateOpen:
		if cb.now().Sub(cb.lastFailure) >= cb.timeout {
			cb.setState(StateHalfOpen)
			cb.probing = true
			return nil
		}
		return ErrCircuitOpen
	case StateHalfOpen:
		if cb.probing {
			return ErrCircuitOpen
		}
		cb.probing = true
		return nil
	}
	return nil
}

// RecordSuccess resets the breaker after a successful call.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount = 0
	cb.probing = false
	if cb.state != StateClosed {
		cb.setState(StateClosed)
	}
}

// RecordFailure counts a failed call and opens the breaker at the
// threshold. A failed half-open probe reopens immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailure = cb.now()
	cb.probing = false

	switch cb.state {
	case StateHalfOpen:
		cb.setState(StateOpen)
	case StateClosed:
		if cb.failureCount >= cb.failureThreshold {
			cb.setState(StateOpen)
		}
	}
}

// Status is a snapshot for the diagnostic endpoint.
type Status struct {
	State            string     `json:"state"`
	FailureCount     int        `json:"failure_count"`
	FailureThreshold int        `json:"failure_threshold"`
	TimeoutSeconds   int        `json:"timeout_seconds"`
	LastFailureAt    *time.Time `json:"last_failure_at,omitempty"`
}

// Snapshot returns the current breaker state.
func (cb *CircuitBreaker) Snapshot() Status {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	st := Status{
		State:            cb.state.String(),
		FailureCount:     cb.failureCount,
		FailureThreshold: cb.failureThreshold,
		TimeoutSeconds:   int(cb.timeout.Seconds()),
	}
	if !cb.lastFailure.IsZero() {
		t := cb.lastFailure
		st.LastFailureAt = &t
	}
	return st
}

// setState assumes cb.mu is held.
func (cb *CircuitBreaker) setState(state CBState) {
	cb.state = state
	switch state {
	case StateClosed:
		metrics.CircuitBreakerState.Set(0)
	case StateHalfOpen:
		metrics.CircuitBreakerState.Set(1)
	case StateOpen:
		metrics.CircuitBreakerState.Set(2)
	}
}
