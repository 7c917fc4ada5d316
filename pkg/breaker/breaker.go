package breaker

import (
	"sync"
	"time"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

// Breaker
// Specialized component to shield callers from a repeatedly failing dependency
// Responsibilities:
// - Count consecutive failures while closed and open the circuit at the threshold
// - Reject calls outright while open, until the recovery timeout elapses
// - Let exactly one probe call through while half-open and decide from its outcome
//
// One Breaker guards one named dependency. Callers wrap each call in
// Execute; the breaker itself never retries anything.
type Breaker struct {
	mu sync.Mutex

	name             string
	failureThreshold int
	recoveryTimeout  time.Duration

	state         State
	failureCount  int
	lastFailureAt time.Time
	probeInFlight bool

	now      func() time.Time
	observer Observer
}

func New(name string, failureThreshold int, recoveryTimeout time.Duration, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		state:            StateClosed,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// State reports the current circuit state without advancing it.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failureCount
}

// Execute runs fn under the breaker's admission rules.
// While open, fn is not invoked and a BreakerError is returned.
// While half-open, at most one caller reaches fn; the rest are rejected.
func Execute[T any](b *Breaker, fn func() (T, failure.ClassifiedError)) (T, failure.ClassifiedError) {
	var zero T

	if rejectErr := b.allow(); rejectErr != nil {
		return zero, rejectErr
	}

	result, err := fn()
	if err != nil {
		b.onFailure()
		return zero, err
	}

	b.onSuccess()
	return result, nil
}

// allow decides whether a call may proceed, advancing open -> half-open
// when the recovery timeout has elapsed.
func (b *Breaker) allow() failure.ClassifiedError {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return nil
	case StateOpen:
		if b.now().Sub(b.lastFailureAt) < b.recoveryTimeout {
			return &BreakerError{
				Message: "recovery timeout not elapsed",
				Cause:   ErrCauseCircuitOpen,
				Name:    b.name,
			}
		}
		b.transition(StateHalfOpen)
		b.probeInFlight = true
		return nil
	case StateHalfOpen:
		if b.probeInFlight {
			return &BreakerError{
				Message: "waiting for probe outcome",
				Cause:   ErrCauseProbeInFlight,
				Name:    b.name,
			}
		}
		b.probeInFlight = true
		return nil
	}
	return nil
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		// consecutive-failure semantics: any success resets the count
		b.failureCount = 0
	case StateHalfOpen:
		b.probeInFlight = false
		b.failureCount = 0
		b.transition(StateClosed)
	}
}

func (b *Breaker) onFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failureCount++
		if b.failureCount >= b.failureThreshold {
			b.lastFailureAt = b.now()
			b.transition(StateOpen)
		}
	case StateHalfOpen:
		b.probeInFlight = false
		b.lastFailureAt = b.now()
		b.transition(StateOpen)
	}
}

// transition must be called with b.mu held.
func (b *Breaker) transition(to State) {
	from := b.state
	b.state = to
	if b.observer != nil {
		b.observer.RecordTransition(b.name, from, to)
	}
}
