package breaker

import "time"

// State of the circuit for one named dependency.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

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

// Observer receives state transitions for observability.
// Implementations must not block; transitions are reported
// while the breaker lock is held.
type Observer interface {
	RecordTransition(name string, from State, to State)
}

// Option configures a Breaker at construction time.
type Option func(*Breaker)

// WithClock injects a time source. Tests use this to drive the
// recovery timeout without sleeping.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithObserver registers a transition observer.
func WithObserver(observer Observer) Option {
	return func(b *Breaker) {
		b.observer = observer
	}
}
