package metadata

import (
	"time"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Cache-layer packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

# CauseBackendUnavailable

Meaning:
  - The remote cache backend could not be reached or answered with a
    transport-level failure. These are absorbed at the client boundary;
    the cause exists so absorbed failures remain visible.

Examples:
  - connection refused / reset
  - command timeout
  - reconnect attempts exhausted

# CauseSerializationFailure

Meaning:
  - A value handed to a set operation could not be encoded as JSON,
    or a stored value could not be decoded.

# CauseStorageFailure

Meaning:
  - Failure while persisting a local snapshot artifact.

Examples:
  - Disk full
  - Write permission errors
  - rename/sync I/O failures

# CauseInvalidKey

Meaning:
  - A malformed identifier was rejected by the key builder.

# CauseLimitExceeded

Meaning:
  - A rate-limit window denied a request. Recorded for audit;
    enforcement lives with the caller.

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.

Examples:
  - a tracked key found without a TTL
  - an active-index member without a backing record
*/
const (
	CauseUnknown = iota
	CauseBackendUnavailable
	CauseSerializationFailure
	CauseStorageFailure
	CauseInvalidKey
	CauseLimitExceeded
	CauseInvariantViolation
)

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type ArtifactKind int

const (
	ArtifactSnapshot ArtifactKind = iota
	ArtifactExport
)

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrKey        AttributeKey = "key"
	AttrPattern    AttributeKey = "pattern"
	AttrJobID      AttributeKey = "job_id"
	AttrKeyword    AttributeKey = "keyword"
	AttrOwner      AttributeKey = "owner"
	AttrIdentifier AttributeKey = "identifier"
	AttrField      AttributeKey = "field"
	AttrState      AttributeKey = "state"
	AttrWritePath  AttributeKey = "write_path"
	AttrCount      AttributeKey = "count"
)
