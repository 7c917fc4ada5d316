package jobstore

import (
	"context"

	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

const activeIndexID = "index"

// MarkActive records the job as in-flight: a short-TTL marker record plus
// membership in the active index set. The marker expiring on its own is
// what makes a crashed worker's job drop out of the active view.
func (s *Store) MarkActive(ctx context.Context, jobID string) failure.ClassifiedError {
	markerKey, kerr := s.keys.Build(nsActive, jobID)
	if kerr != nil {
		s.recordKeyError("MarkActive", jobID, kerr)
		return kerr
	}
	indexKey, kerr := s.keys.Build(nsActive, activeIndexID)
	if kerr != nil {
		s.recordKeyError("MarkActive", jobID, kerr)
		return kerr
	}

	if _, err := s.client.Set(ctx, markerKey, jobID, s.ttl.Active()); err != nil {
		return err
	}
	s.client.SetAdd(ctx, indexKey, jobID)
	s.client.Expire(ctx, indexKey, s.ttl.OwnerIndex())
	return nil
}

// ActiveJobs returns the ids whose active marker is still live. Members
// whose marker has expired are pruned from the index on the way through,
// so the index self-heals instead of accumulating dead entries.
func (s *Store) ActiveJobs(ctx context.Context) []string {
	indexKey, kerr := s.keys.Build(nsActive, activeIndexID)
	if kerr != nil {
		s.recordKeyError("ActiveJobs", activeIndexID, kerr)
		return []string{}
	}

	members := s.client.SetMembers(ctx, indexKey)
	live := make([]string, 0, len(members))
	for _, jobID := range members {
		markerKey, err := s.keys.Build(nsActive, jobID)
		if err != nil {
			s.recordKeyError("ActiveJobs", jobID, err)
			continue
		}
		if _, ok := s.client.Get(ctx, markerKey); ok {
			live = append(live, jobID)
		} else {
			s.client.SetRemove(ctx, indexKey, jobID)
		}
	}

	metrics.ActiveJobs.Set(float64(len(live)))
	return live
}

// UnmarkActive removes the marker and the index membership.
func (s *Store) UnmarkActive(ctx context.Context, jobID string) {
	if markerKey, err := s.keys.Build(nsActive, jobID); err == nil {
		s.client.Delete(ctx, markerKey)
	}
	if indexKey, err := s.keys.Build(nsActive, activeIndexID); err == nil {
		s.client.SetRemove(ctx, indexKey, jobID)
	}
}
