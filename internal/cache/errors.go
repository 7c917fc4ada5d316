package cache

import (
	"fmt"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

type CacheErrorCause string

const (
	ErrCauseSerialization CacheErrorCause = "value is not JSON-encodable"
	ErrCauseDecode        CacheErrorCause = "stored value could not be decoded"
	ErrCauseProducer      CacheErrorCause = "producer failed"
)

// CacheError reports malformed input to a cache operation.
// Backend unavailability is never expressed as a CacheError: availability
// failures are absorbed and surface only as absent/no-op results.
type CacheError struct {
	Message   string
	Retryable bool
	Cause     CacheErrorCause
	Key       string
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache error: %s", e.Cause)
}

func (e *CacheError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *CacheError) IsRetryable() bool {
	return e.Retryable
}

// Is allows errors.Is to match CacheError types
func (e *CacheError) Is(target error) bool {
	_, ok := target.(*CacheError)
	return ok
}
