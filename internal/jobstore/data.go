package jobstore

import (
	"time"
)

// JobStatus is the lifecycle state of one scrape job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Job is the transient record the pipeline mutates as it progresses.
// The store owns its lifecycle exclusively; the pipeline only calls
// store operations.
type Job struct {
	ID        string            `json:"id"`
	OwnerID   string            `json:"ownerId"`
	Status    JobStatus         `json:"status"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Record is one scraped entity. The pipeline decides its shape; the
// store only requires JSON-compatibility.
type Record map[string]any

// ResultShape is the explicit stored-value tag that tells readers which
// decode path applies, replacing any backend type probe.
type ResultShape string

const (
	ShapePartitioned ResultShape = "partitioned"
	ShapeScalar      ResultShape = "scalar"
)

// hash field names inside a result key
const (
	shapeField = "__shape"
	flatField  = "__records"
)

// key namespaces under the deployment prefix
const (
	nsJob     = "job"
	nsResults = "results"
	nsActive  = "active"
	nsOwner   = "owner"
)

// TTLTiers assigns a fixed expiry per entity class rather than per
// instance. Every entry this store writes expires through one of these.
type TTLTiers struct {
	job        time.Duration
	results    time.Duration
	active     time.Duration
	ownerIndex time.Duration
	transient  time.Duration
}

func NewTTLTiers(
	job time.Duration,
	results time.Duration,
	active time.Duration,
	ownerIndex time.Duration,
	transient time.Duration,
) TTLTiers {
	return TTLTiers{
		job:        job,
		results:    results,
		active:     active,
		ownerIndex: ownerIndex,
		transient:  transient,
	}
}

// DefaultTTLTiers returns the production tiers: multi-day job records,
// day-scale results, short-lived active markers.
func DefaultTTLTiers() TTLTiers {
	return TTLTiers{
		job:        7 * 24 * time.Hour,
		results:    24 * time.Hour,
		active:     5 * time.Minute,
		ownerIndex: 7 * 24 * time.Hour,
		transient:  time.Minute,
	}
}

func (t *TTLTiers) Job() time.Duration {
	return t.job
}

func (t *TTLTiers) Results() time.Duration {
	return t.results
}

func (t *TTLTiers) Active() time.Duration {
	return t.active
}

func (t *TTLTiers) OwnerIndex() time.Duration {
	return t.ownerIndex
}

func (t *TTLTiers) Transient() time.Duration {
	return t.transient
}

// ResultSet is a tag-dispatched read of one job's results.
type ResultSet struct {
	shape     ResultShape
	byKeyword map[string][]Record
	flat      []Record
}

func (r *ResultSet) Shape() ResultShape {
	return r.shape
}

func (r *ResultSet) ByKeyword() map[string][]Record {
	return r.byKeyword
}

func (r *ResultSet) Flat() []Record {
	return r.flat
}

// DefaultStreamChunkSize bounds peak memory during export serialization.
const DefaultStreamChunkSize = 10
