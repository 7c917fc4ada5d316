package breaker

import (
	"fmt"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

type BreakerErrorCause string

const (
	ErrCauseCircuitOpen   BreakerErrorCause = "circuit open"
	ErrCauseProbeInFlight BreakerErrorCause = "half-open probe already in flight"
)

// BreakerError is returned when a call is rejected without invoking
// the wrapped operation. Always recoverable: the circuit may close later.
type BreakerError struct {
	Message string
	Cause   BreakerErrorCause
	Name    string
}

func (e *BreakerError) Error() string {
	return fmt.Sprintf("breaker %s: %s", e.Name, e.Cause)
}

func (e *BreakerError) Severity() failure.Severity {
	return failure.SeverityRecoverable
}

func (e *BreakerError) IsRetryable() bool {
	return true
}

// Is allows errors.Is to match BreakerError types
func (e *BreakerError) Is(target error) bool {
	_, ok := target.(*BreakerError)
	return ok
}
