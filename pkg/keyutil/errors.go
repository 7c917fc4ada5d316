package keyutil

import (
	"fmt"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

type KeyErrorCause string

const (
	ErrCauseEmptyPart   KeyErrorCause = "empty key part"
	ErrCauseUnsafePart  KeyErrorCause = "key part contains separator or control characters"
	ErrCauseEmptyPrefix KeyErrorCause = "empty key prefix"
)

// KeyError reports a malformed identifier passed to the key builder.
// Never retryable: the same input always fails.
type KeyError struct {
	Message string
	Cause   KeyErrorCause
	Part    string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("key error: %s: %s", e.Cause, e.Message)
}

func (e *KeyError) Severity() failure.Severity {
	return failure.SeverityFatal
}

// Is allows errors.Is to match KeyError types
func (e *KeyError) Is(target error) bool {
	_, ok := target.(*KeyError)
	return ok
}
