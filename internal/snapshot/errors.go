package snapshot

import (
	"fmt"

	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

type SnapshotErrorCause string

const (
	ErrCauseSerializeFailure SnapshotErrorCause = "payload is not JSON-encodable"
	ErrCauseWriteFailure     SnapshotErrorCause = "write failed"
	ErrCauseSyncFailure      SnapshotErrorCause = "sync failed"
	ErrCauseRenameFailure    SnapshotErrorCause = "rename failed"
	ErrCauseDiskFull         SnapshotErrorCause = "disk is full"
	ErrCausePathError        SnapshotErrorCause = "path error"
	ErrCauseScanFailure      SnapshotErrorCause = "directory scan failed"
)

type SnapshotError struct {
	Message   string
	Retryable bool
	Cause     SnapshotErrorCause
	Path      string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("snapshot error: %s", e.Cause)
}

func (e *SnapshotError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

func (e *SnapshotError) IsRetryable() bool {
	return e.Retryable
}

// mapSnapshotErrorToMetadataCause maps snapshot-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapSnapshotErrorToMetadataCause(err *SnapshotError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseSerializeFailure:
		return metadata.CauseSerializationFailure
	case ErrCauseWriteFailure, ErrCauseSyncFailure, ErrCauseRenameFailure,
		ErrCauseDiskFull, ErrCausePathError, ErrCauseScanFailure:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
