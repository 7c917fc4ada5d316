package jobstore

import (
	"fmt"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

type ErrorCause string

const (
	ErrCauseSerializeResult ErrorCause = "SERIALIZE_RESULT"
	ErrCauseStreamAborted   ErrorCause = "STREAM_ABORTED"
)

type StoreError struct {
	Message string
	Cause   ErrorCause
	JobID   string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("jobstore error (cause: %s, job: %s): %s", e.Cause, e.JobID, e.Message)
}

func (e *StoreError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match StoreError types
func (e *StoreError) Is(target error) bool {
	_, ok := target.(*StoreError)
	return ok
}
