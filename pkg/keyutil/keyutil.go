package keyutil

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rohmanhakim/scrapecache/pkg/failure"
)

// Builder
// Specialized component to construct backend key names
// Responsibilities:
// - Produce deterministic, collision-free keys from (namespace, id, field)
// - Prefix every key so one deployment's keys are distinguishable and pattern-deletable
// - Reject identifiers that would break the key grammar
//
// Keys follow the grammar:
//
//	<prefix>:<namespace>:<id>[:<field>...]
//
// Build is pure: same inputs, same key, no side effects.

const separator = ":"

type Builder struct {
	prefix string
}

// NewBuilder returns a Builder rooted at the given deployment prefix.
// The prefix is validated once here so Build only has to validate the
// per-call parts.
func NewBuilder(prefix string) (Builder, failure.ClassifiedError) {
	if prefix == "" {
		return Builder{}, &KeyError{
			Message: "prefix must not be empty",
			Cause:   ErrCauseEmptyPrefix,
		}
	}
	if err := validatePart(prefix); err != nil {
		return Builder{}, err
	}
	return Builder{prefix: prefix}, nil
}

func (b Builder) Prefix() string {
	return b.prefix
}

// Build assembles a key from the namespace, id, and optional sub-fields.
// Every part is validated; a part containing the separator or control
// characters fails with KeyError.
func (b Builder) Build(namespace string, id string, field ...string) (string, failure.ClassifiedError) {
	parts := make([]string, 0, 3+len(field))
	parts = append(parts, b.prefix, namespace, id)
	parts = append(parts, field...)

	for _, part := range parts[1:] {
		if part == "" {
			return "", &KeyError{
				Message: "namespace, id, and fields must not be empty",
				Cause:   ErrCauseEmptyPart,
			}
		}
		if err := validatePart(part); err != nil {
			return "", err
		}
	}

	return strings.Join(parts, separator), nil
}

// Pattern returns the glob matching every key under (namespace, id),
// suitable for pattern-based bulk deletion.
func (b Builder) Pattern(namespace string, id string) (string, failure.ClassifiedError) {
	base, err := b.Build(namespace, id)
	if err != nil {
		return "", err
	}
	return base + separator + "*", nil
}

func validatePart(part string) failure.ClassifiedError {
	for _, r := range part {
		if strings.ContainsRune(separator, r) || unicode.IsControl(r) {
			return &KeyError{
				Message: fmt.Sprintf("part %q contains forbidden character", part),
				Cause:   ErrCauseUnsafePart,
				Part:    part,
			}
		}
	}
	return nil
}
