package jobstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/snapshot"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

// PutResults stores results partitioned per keyword: one hash field per
// keyword plus the shape tag, with the enclosing TTL at the results tier.
func (s *Store) PutResults(ctx context.Context, jobID string, byKeyword map[string][]Record) failure.ClassifiedError {
	resultsKey, kerr := s.keys.Build(nsResults, jobID)
	if kerr != nil {
		s.recordKeyError("PutResults", jobID, kerr)
		return kerr
	}

	if _, err := s.client.HashSet(ctx, resultsKey, shapeField, string(ShapePartitioned)); err != nil {
		return err
	}
	for keyword, records := range byKeyword {
		if _, err := s.client.HashSet(ctx, resultsKey, keyword, records); err != nil {
			return err
		}
	}
	s.client.Expire(ctx, resultsKey, s.ttl.Results())
	return nil
}

// PutFlatResults stores results as a single scalar-tagged value for
// pipelines that never partition by keyword.
func (s *Store) PutFlatResults(ctx context.Context, jobID string, records []Record) failure.ClassifiedError {
	resultsKey, kerr := s.keys.Build(nsResults, jobID)
	if kerr != nil {
		s.recordKeyError("PutFlatResults", jobID, kerr)
		return kerr
	}

	if _, err := s.client.HashSet(ctx, resultsKey, shapeField, string(ShapeScalar)); err != nil {
		return err
	}
	if _, err := s.client.HashSet(ctx, resultsKey, flatField, records); err != nil {
		return err
	}
	s.client.Expire(ctx, resultsKey, s.ttl.Results())
	return nil
}

// BatchPutResults writes every keyword partition, the shape tag, and the
// expiry as one pipelined unit. All-or-nothing at the command level: on a
// mid-pipeline backend failure nothing is guaranteed durable and the
// caller retries the whole batch.
func (s *Store) BatchPutResults(ctx context.Context, jobID string, byKeyword map[string][]Record) (bool, failure.ClassifiedError) {
	resultsKey, kerr := s.keys.Build(nsResults, jobID)
	if kerr != nil {
		s.recordKeyError("BatchPutResults", jobID, kerr)
		return false, kerr
	}

	fields := make(map[string]string, len(byKeyword)+1)
	fields[shapeField] = string(ShapePartitioned)
	for keyword, records := range byKeyword {
		encoded, err := json.Marshal(records)
		if err != nil {
			s.sink.RecordError(
				time.Now(),
				"jobstore",
				"Store.BatchPutResults",
				metadata.CauseSerializationFailure,
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrJobID, jobID),
					metadata.NewAttr(metadata.AttrKeyword, keyword),
				},
			)
			return false, &StoreError{
				Message: err.Error(),
				Cause:   ErrCauseSerializeResult,
				JobID:   jobID,
			}
		}
		fields[keyword] = string(encoded)
	}

	return s.client.HashSetAll(ctx, resultsKey, fields, s.ttl.Results()), nil
}

// Results reads the job's stored results and decodes by the shape tag.
// An absent key yields an empty set, not an error. With keywords given,
// only those partitions of a partitioned set are decoded.
func (s *Store) Results(ctx context.Context, jobID string, keyword ...string) ResultSet {
	resultsKey, kerr := s.keys.Build(nsResults, jobID)
	if kerr != nil {
		s.recordKeyError("Results", jobID, kerr)
		return ResultSet{}
	}

	fields := s.client.HashGetAll(ctx, resultsKey)
	if len(fields) == 0 {
		return ResultSet{}
	}

	switch ResultShape(fields[shapeField]) {
	case ShapeScalar:
		return ResultSet{
			shape: ShapeScalar,
			flat:  s.decodeRecords(jobID, flatField, fields[flatField]),
		}
	case ShapePartitioned:
		byKeyword := make(map[string][]Record)
		if len(keyword) > 0 {
			for _, kw := range keyword {
				if raw, ok := fields[kw]; ok {
					byKeyword[kw] = s.decodeRecords(jobID, kw, raw)
				}
			}
		} else {
			for field, raw := range fields {
				if field == shapeField {
					continue
				}
				byKeyword[field] = s.decodeRecords(jobID, field, raw)
			}
		}
		return ResultSet{
			shape:     ShapePartitioned,
			byKeyword: byKeyword,
		}
	default:
		s.sink.RecordError(
			time.Now(),
			"jobstore",
			"Store.Results",
			metadata.CauseInvariantViolation,
			"stored results carry no shape tag",
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrJobID, jobID)},
		)
		return ResultSet{}
	}
}

// StreamResults reads one keyword partition in full and hands it to fn in
// fixed-size chunks. Chunking bounds the caller's working set during
// serialization; the read itself is not incremental and the stream is not
// restartable. fn returning an error stops the stream.
func (s *Store) StreamResults(ctx context.Context, jobID string, keyword string, fn func(chunk []Record) error) failure.ClassifiedError {
	resultsKey, kerr := s.keys.Build(nsResults, jobID)
	if kerr != nil {
		s.recordKeyError("StreamResults", jobID, kerr)
		return kerr
	}

	raw, ok := s.client.HashGet(ctx, resultsKey, keyword)
	if !ok {
		return nil
	}
	records := s.decodeRecords(jobID, keyword, raw)

	for start := 0; start < len(records); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(records) {
			end = len(records)
		}
		if err := fn(records[start:end]); err != nil {
			return &StoreError{
				Message: err.Error(),
				Cause:   ErrCauseStreamAborted,
				JobID:   jobID,
			}
		}
	}
	return nil
}

// SnapshotResults mirrors the job's current partitions to local disk.
// No-op unless local save is enabled. Write failures surface to the
// caller; the stored results are unaffected either way.
func (s *Store) SnapshotResults(ctx context.Context, jobID string) (snapshot.WriteResult, failure.ClassifiedError) {
	if !s.localSave {
		return snapshot.WriteResult{}, nil
	}

	set := s.Results(ctx, jobID)
	payload := map[string]any{
		"jobId": jobID,
		"shape": string(set.Shape()),
	}
	switch set.Shape() {
	case ShapeScalar:
		payload["records"] = set.Flat()
	default:
		payload["byKeyword"] = set.ByKeyword()
	}

	return s.writer.Write(s.outputDir, jobID, payload)
}

func (s *Store) decodeRecords(jobID string, field string, raw string) []Record {
	if raw == "" {
		return []Record{}
	}
	var records []Record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.sink.RecordError(
			time.Now(),
			"jobstore",
			"Store.decodeRecords",
			metadata.CauseSerializationFailure,
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrJobID, jobID),
				metadata.NewAttr(metadata.AttrField, field),
			},
		)
		return []Record{}
	}
	return records
}
