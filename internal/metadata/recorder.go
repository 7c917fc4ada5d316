package metadata

import (
	"time"
)

/*
Metadata Collected
- Cache operation outcomes (hit/miss/degraded)
- Backend connection state changes
- Snapshot artifact paths and hashes
- Absorbed backend failures

Logging Goals
- Debuggable degradation behavior
- Post-incident auditability
- Failure diagnostics

Structured logging is preferred.

Determinism guarantees:
 - Metadata does not affect control flow
 - Degraded results are identical with or without a sink attached

Metadata is write-only.
No component may read metadata to influence cache decisions.
*/

/*
Recorder captures structured cache-layer events.
It must not:
- perform I/O decisions
- affect control flow
- impose a logging backend
Ordering guarantees:
- Events are recorded synchronously in the order they are received by a single caller.
- No global ordering across callers is guaranteed.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	source string
}

func NewRecorder(source string) Recorder {
	return Recorder{
		source: source,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {

}

func (r *Recorder) RecordCacheOp(
	op string,
	key string,
	hit bool,
	degraded bool,
	duration time.Duration,
) {
}

func (r *Recorder) RecordConnState(observedAt time.Time, state string) {}

func (r *Recorder) RecordSweep(observedAt time.Time, target string, removed int) {}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordCacheOp(
		op string,
		key string,
		hit bool,
		degraded bool,
		duration time.Duration,
	)

	RecordConnState(observedAt time.Time, state string)

	RecordSweep(observedAt time.Time, target string, removed int)

	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

// NoopSink, struct that implements metadata.MetadataSink but does nothing
// Service (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {

}

func (n *NoopSink) RecordCacheOp(
	op string,
	key string,
	hit bool,
	degraded bool,
	duration time.Duration,
) {
}

func (n *NoopSink) RecordConnState(observedAt time.Time, state string) {}

func (n *NoopSink) RecordSweep(observedAt time.Time, target string, removed int) {}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
