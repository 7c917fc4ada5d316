package jobstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rohmanhakim/scrapecache/internal/cache"
	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/snapshot"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
	"github.com/rohmanhakim/scrapecache/pkg/keyutil"
)

/*
Responsibilities
- Own the Job and ResultPartition lifecycle end to end
- Partition results per keyword so retrieval, update, and memory
  accounting happen per keyword, never per oversized blob
- Keep the active-job index honest by pruning dangling references
- Mirror results to local disk (best-effort) through the snapshot writer

Degradation Characteristics
- Built entirely on the cache client's absorb-availability contract:
  a miss on an id previously written is a possible outcome, not an error
  (the backend evicts least-recently-used keys under memory pressure)
*/

type Store struct {
	client    cache.Client
	keys      keyutil.Builder
	ttl       TTLTiers
	sink      metadata.MetadataSink
	writer    snapshot.Writer
	localSave bool
	outputDir string
	chunkSize int
}

func NewStore(
	client cache.Client,
	keys keyutil.Builder,
	ttl TTLTiers,
	sink metadata.MetadataSink,
	writer snapshot.Writer,
	localSave bool,
	outputDir string,
	chunkSize int,
) Store {
	if chunkSize <= 0 {
		chunkSize = DefaultStreamChunkSize
	}
	return Store{
		client:    client,
		keys:      keys,
		ttl:       ttl,
		sink:      sink,
		writer:    writer,
		localSave: localSave,
		outputDir: outputDir,
		chunkSize: chunkSize,
	}
}

// PutJob stores the job record at the job TTL tier and indexes it under
// its owner. A job without an id gets a generated one; the stored job is
// returned with UpdatedAt bumped.
func (s *Store) PutJob(ctx context.Context, job Job) (Job, failure.ClassifiedError) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = StatusQueued
	}

	jobKey, kerr := s.keys.Build(nsJob, job.ID)
	if kerr != nil {
		s.recordKeyError("PutJob", job.ID, kerr)
		return Job{}, kerr
	}

	if _, err := s.client.Set(ctx, jobKey, job, s.ttl.Job()); err != nil {
		return Job{}, err
	}

	if job.OwnerID != "" {
		ownerKey, kerr := s.keys.Build(nsOwner, job.OwnerID)
		if kerr != nil {
			s.recordKeyError("PutJob", job.OwnerID, kerr)
			return job, kerr
		}
		s.client.SetAdd(ctx, ownerKey, job.ID)
		s.client.Expire(ctx, ownerKey, s.ttl.OwnerIndex())
	}

	return job, nil
}

// GetJob returns the job record, or false when it is absent — whether
// never written, expired, or evicted.
func (s *Store) GetJob(ctx context.Context, jobID string) (Job, bool) {
	jobKey, kerr := s.keys.Build(nsJob, jobID)
	if kerr != nil {
		s.recordKeyError("GetJob", jobID, kerr)
		return Job{}, false
	}

	raw, ok := s.client.Get(ctx, jobKey)
	if !ok {
		return Job{}, false
	}

	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		s.sink.RecordError(
			time.Now(),
			"jobstore",
			"Store.GetJob",
			metadata.CauseSerializationFailure,
			err.Error(),
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrJobID, jobID)},
		)
		return Job{}, false
	}
	return job, true
}

// JobsByOwner lists the job ids indexed under the owner. Ids whose
// records have since expired may still appear; GetJob resolves liveness.
func (s *Store) JobsByOwner(ctx context.Context, ownerID string) []string {
	ownerKey, kerr := s.keys.Build(nsOwner, ownerID)
	if kerr != nil {
		s.recordKeyError("JobsByOwner", ownerID, kerr)
		return []string{}
	}
	return s.client.SetMembers(ctx, ownerKey)
}

// DeleteJob removes the job record and cascades: owner-index membership,
// the active marker and index entry, and every result partition.
func (s *Store) DeleteJob(ctx context.Context, jobID string) bool {
	job, found := s.GetJob(ctx, jobID)

	jobKey, kerr := s.keys.Build(nsJob, jobID)
	if kerr != nil {
		s.recordKeyError("DeleteJob", jobID, kerr)
		return false
	}
	deleted := s.client.Delete(ctx, jobKey)

	if found && job.OwnerID != "" {
		if ownerKey, err := s.keys.Build(nsOwner, job.OwnerID); err == nil {
			s.client.SetRemove(ctx, ownerKey, jobID)
		}
	}

	s.UnmarkActive(ctx, jobID)

	if resultsKey, err := s.keys.Build(nsResults, jobID); err == nil {
		s.client.Delete(ctx, resultsKey)
	}
	if pattern, err := s.keys.Pattern(nsResults, jobID); err == nil {
		s.client.DeletePattern(ctx, pattern)
	}

	return deleted
}

// MemoryUsage reports the backend memory picture for operational
// visibility. Not used for write admission.
func (s *Store) MemoryUsage(ctx context.Context) (cache.MemoryStats, bool) {
	return s.client.MemoryUsage(ctx)
}

// Cleanup sweeps keys under this deployment's prefix that lack an
// expiry. Defensive consistency check, not a normal-path operation.
func (s *Store) Cleanup(ctx context.Context) int {
	removed := s.client.SweepUntracked(ctx, s.keys.Prefix()+":*")
	s.sink.RecordSweep(time.Now(), s.keys.Prefix(), removed)
	return removed
}

func (s *Store) recordKeyError(action string, id string, err failure.ClassifiedError) {
	s.sink.RecordError(
		time.Now(),
		"jobstore",
		"Store."+action,
		metadata.CauseInvalidKey,
		err.Error(),
		[]metadata.Attribute{metadata.NewAttr(metadata.AttrJobID, id)},
	)
}
