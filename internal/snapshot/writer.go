package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/rohmanhakim/scrapecache/internal/metadata"
	"github.com/rohmanhakim/scrapecache/internal/metrics"
	"github.com/rohmanhakim/scrapecache/pkg/failure"
	"github.com/rohmanhakim/scrapecache/pkg/fileutil"
	"github.com/rohmanhakim/scrapecache/pkg/hashutil"
)

/*
Responsibilities
- Persist JSON snapshots of job results to local disk
- Make the rename the only observable event: readers of the final path
  never see a partially written file
- Sweep temp files orphaned by a crash before rename

Output Characteristics
- One JSON file per job/export artifact
- In-flight writes use <finalname>.<timestamp>.<token>.tmp
- Idempotent, overwrite-safe reruns
*/

const (
	tempSuffix = ".tmp"

	// DefaultStaleAge is how old an orphaned temp file must be before
	// CleanupStale removes it.
	DefaultStaleAge = time.Hour
)

type Writer interface {
	Write(dir string, name string, payload any) (WriteResult, failure.ClassifiedError)
	CleanupStale(dir string, maxAge time.Duration) (int, failure.ClassifiedError)
}

type LocalWriter struct {
	metadataSink metadata.MetadataSink
	hashAlgo     hashutil.HashAlgo
}

func NewLocalWriter(
	metadataSink metadata.MetadataSink,
	hashAlgo hashutil.HashAlgo,
) LocalWriter {
	return LocalWriter{
		metadataSink: metadataSink,
		hashAlgo:     hashAlgo,
	}
}

// Write serializes payload and lands it at <dir>/<sanitized name>.json via
// write-then-rename. On any failure before the rename the temp file is
// removed and the previous content of the final path is left untouched.
func (w *LocalWriter) Write(dir string, name string, payload any) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(dir, name, payload, w.hashAlgo)
	if err != nil {
		var snapshotError *SnapshotError
		errors.As(err, &snapshotError)
		w.metadataSink.RecordError(
			time.Now(),
			"snapshot",
			"LocalWriter.Write",
			mapSnapshotErrorToMetadataCause(snapshotError),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrWritePath, snapshotError.Path),
			},
		)
		metrics.SnapshotWritesTotal.WithLabelValues("false").Inc()
		return WriteResult{}, snapshotError
	}
	w.metadataSink.RecordArtifact(
		metadata.ArtifactSnapshot,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrField, writeResult.ContentHash()),
		},
	)
	metrics.SnapshotWritesTotal.WithLabelValues("true").Inc()
	return writeResult, nil
}

func write(dir string, name string, payload any, hashAlgo hashutil.HashAlgo) (WriteResult, failure.ClassifiedError) {
	content, err := json.Marshal(payload)
	if err != nil {
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseSerializeFailure,
			Path:      "",
		}
	}

	if err := fileutil.EnsureDir(dir); err != nil {
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCausePathError,
			Path:      dir,
		}
	}

	filename := fileutil.SanitizeFilename(name) + ".json"
	finalPath := filepath.Join(dir, filename)
	tempPath := tempPathFor(finalPath)

	// O_EXCL: the timestamp+token name must be ours alone
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      tempPath,
		}
	}

	if _, err := file.Write(content); err != nil {
		file.Close()
		os.Remove(tempPath)
		cause := ErrCauseWriteFailure
		retryable := false
		if errors.Is(err, syscall.ENOSPC) {
			cause = ErrCauseDiskFull
			retryable = true // disk full is retryable
		}
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      tempPath,
		}
	}

	// force the bytes to durable storage before the rename publishes them
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: true,
			Cause:     ErrCauseSyncFailure,
			Path:      tempPath,
		}
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseWriteFailure,
			Path:      tempPath,
		}
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return WriteResult{}, &SnapshotError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseRenameFailure,
			Path:      finalPath,
		}
	}

	contentHash, err := hashutil.HashBytes(content, hashAlgo)
	if err != nil {
		// the file landed; a hash failure must not unwind it
		contentHash = ""
	}

	return NewWriteResult(finalPath, contentHash, len(content)), nil
}

// CleanupStale removes orphaned temp files older than maxAge from dir.
// Only the temp naming pattern is targeted, never final files, so it is
// safe to run concurrently with active writers. Idempotent.
func (w *LocalWriter) CleanupStale(dir string, maxAge time.Duration) (int, failure.ClassifiedError) {
	if maxAge <= 0 {
		maxAge = DefaultStaleAge
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		serr := &SnapshotError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseScanFailure,
			Path:      dir,
		}
		w.metadataSink.RecordError(
			time.Now(),
			"snapshot",
			"LocalWriter.CleanupStale",
			mapSnapshotErrorToMetadataCause(serr),
			serr.Message,
			[]metadata.Attribute{metadata.NewAttr(metadata.AttrWritePath, dir)},
		)
		return 0, serr
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || fileutil.GetFileExtension(entry.Name()) != "tmp" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
			removed++
		}
	}

	w.metadataSink.RecordSweep(time.Now(), dir, removed)
	return removed, nil
}

func tempPathFor(finalPath string) string {
	token := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s.%d.%s%s", finalPath, time.Now().UnixNano(), token, tempSuffix)
}
