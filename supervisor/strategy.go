package supervisor

import (
	"math/rand"
	"time"
)

// BackoffType selects how long performRestart waits, on top of the hard
// intensity window in window.go, before actually starting a fresh
// incarnation. This is a deliberate extension beyond plain OTP restart
// strategies: a flapping child (one that keeps exiting abnormally but
// slowly enough to stay under the intensity limit) otherwise gets
// restarted as fast as the scheduler allows.
type BackoffType int

const (
	NoBackoff BackoffType = iota
	LinearBackoff
	ExponentialBackoff
	JitteredExponentialBackoff
)

// BackoffPolicy configures the delay curve. Base is the delay after the
// first restart, Max caps it regardless of curve.
type BackoffPolicy struct {
	Type         BackoffType
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

// NoBackoffPolicy restarts immediately, matching the teacher's original
// default strategy.
func NoBackoffPolicy() BackoffPolicy { return BackoffPolicy{Type: NoBackoff} }

func (p BackoffPolicy) delay(attempt int) time.Duration {
	if attempt <= 0 || p.Type == NoBackoff {
		return 0
	}

	var backoff time.Duration
	switch p.Type {
	case LinearBackoff:
		backoff = p.Base * time.Duration(attempt)
	case ExponentialBackoff, JitteredExponentialBackoff:
		backoff = p.Base
		for i := 0; i < attempt-1; i++ {
			backoff *= 2
		}
		if p.Type == JitteredExponentialBackoff {
			jitter := float64(backoff) * p.JitterFactor * (rand.Float64()*2 - 1)
			withJitter := backoff + time.Duration(jitter)
			if withJitter < 0 {
				withJitter = 0
			}
			backoff = withJitter
		}
	default:
		return 0
	}

	if p.Max > 0 && backoff > p.Max {
		backoff = p.Max
	}
	return backoff
}

// CircuitBreakerState is the classic closed/open/half-open cycle.
type CircuitBreakerState int

const (
	Closed CircuitBreakerState = iota
	Open
	HalfOpen
)

// CircuitBreaker gates restarts independently of the hard intensity
// window: it trips after tripThreshold failures within failureWindow,
// refuses restarts while Open, and probes with HalfOpen once
// resetTimeout has elapsed.
type CircuitBreaker struct {
	state              CircuitBreakerState
	failures           int
	tripThreshold      int
	failureWindow      time.Duration
	resetTimeout       time.Duration
	lastFailure        time.Time
	lastStateChange    time.Time
	consecutiveSuccess int
	successThreshold   int
}

func NewCircuitBreaker(tripThreshold int, failureWindow, resetTimeout time.Duration, successThreshold int) *CircuitBreaker {
	return &CircuitBreaker{
		state:            Closed,
		tripThreshold:    tripThreshold,
		failureWindow:    failureWindow,
		resetTimeout:     resetTimeout,
		lastStateChange:  time.Now(),
		successThreshold: successThreshold,
	}
}

func (cb *CircuitBreaker) State() CircuitBreakerState {
	now := time.Now()
	if cb.state == Open && now.Sub(cb.lastStateChange) > cb.resetTimeout {
		cb.state = HalfOpen
		cb.lastStateChange = now
	}
	return cb.state
}

// RecordFailure accounts one restart attempt's trigger and reports
// whether this call tripped the breaker open.
func (cb *CircuitBreaker) RecordFailure() bool {
	now := time.Now()
	if !cb.lastFailure.IsZero() && now.Sub(cb.lastFailure) > cb.failureWindow {
		cb.failures = 0
	}
	cb.failures++
	cb.lastFailure = now
	cb.consecutiveSuccess = 0

	if cb.state == Closed && cb.failures >= cb.tripThreshold {
		cb.state = Open
		cb.lastStateChange = now
		return true
	}
	if cb.state == HalfOpen {
		cb.state = Open
		cb.lastStateChange = now
	}
	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	if cb.State() == HalfOpen {
		cb.consecutiveSuccess++
		if cb.consecutiveSuccess >= cb.successThreshold {
			cb.reset()
		}
	}
}

func (cb *CircuitBreaker) reset() {
	cb.state = Closed
	cb.failures = 0
	cb.lastStateChange = time.Now()
	cb.consecutiveSuccess = 0
}

// Reset forces the breaker back to Closed, discarding any recorded
// failure/success history.
func (cb *CircuitBreaker) Reset() { cb.reset() }

func (cb *CircuitBreaker) ShouldAllow() bool {
	switch cb.State() {
	case Closed, HalfOpen:
		return true
	default:
		return false
	}
}
