package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

// maxFilenameLength caps sanitized filenames well below common
// filesystem limits, leaving room for suffixes and extensions.
const maxFilenameLength = 120

// GetFileExtension extracts the file extension from a path, or empty string if none
func GetFileExtension(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return ""
	}
	// Remove the leading dot
	return strings.TrimPrefix(ext, ".")
}

// EnsureDir check if a given directory plus the following path exist, then create one if not
func EnsureDir(dir string, path ...string) failure.ClassifiedError {
	targetPath := []string{dir}
	targetPath = append(targetPath, path...)

	target := filepath.Join(targetPath...)
	if err := os.MkdirAll(target, 0755); err != nil {
		return &FileError{
			Message:   fmt.Sprintf("%v", err),
			Retryable: false,
			Cause:     ErrCausePathError,
		}
	}
	return nil
}

// SanitizeFilename turns an arbitrary identifier (job id, keyword) into a
// name safe to use as a single path element:
//   - path separators and other path-unsafe characters are stripped
//   - runs of whitespace collapse into a single underscore
//   - the result is capped at 120 characters
//
// An identifier that sanitizes to nothing becomes "unnamed" so callers
// never produce an empty path element.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSpace := false
	for _, r := range name {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if b.Len() > 0 {
				pendingSpace = true
			}
		case isPathUnsafe(r):
			// dropped entirely
		default:
			if pendingSpace {
				b.WriteByte('_')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	sanitized := b.String()
	if len(sanitized) > maxFilenameLength {
		sanitized = sanitized[:maxFilenameLength]
	}
	if sanitized == "" {
		return "unnamed"
	}
	return sanitized
}

func isPathUnsafe(r rune) bool {
	switch r {
	case '/', '\\', ':', '*', '?', '"', '<', '>', '|', 0:
		return true
	}
	return r < 0x20
}
