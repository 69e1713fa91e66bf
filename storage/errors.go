package storage

import (
	"errors"
	"fmt"
)

// Sentinel errors for store operations.
var (
	ErrETagConflict = errors.New("etag conflict")
	ErrLoadFailed   = errors.New("load failed")
	ErrSaveFailed   = errors.New("save failed")
	ErrInvalidKey   = errors.New("invalid key")
	ErrUnknownStore = errors.New("unknown store backend")
)

// ConflictError reports a conditional write rejected because the stored item
// has moved on from the tag the writer held.
type ConflictError struct {
	Key          string
	ExpectedETag string
	CurrentETag  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("etag conflict: %s: expected %q, current %q", e.Key, e.ExpectedETag, e.CurrentETag)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrETagConflict
}
