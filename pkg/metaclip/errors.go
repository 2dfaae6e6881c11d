package metaclip

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrItemNotFound indicates no catalog row matches the id
	ErrItemNotFound = errors.New("item not found")

	// ErrInvalidKind indicates a kind outside the accepted set
	ErrInvalidKind = errors.New("invalid item kind")

	// ErrMissingContent indicates a create request without content
	ErrMissingContent = errors.New("missing item content")

	// ErrWrongKind indicates a file operation applied to a non-file item
	ErrWrongKind = errors.New("item kind mismatch")

	// ErrNoBytes indicates the catalog row exists but the blob bytes do not
	// (the two-phase creation gap, or a post-upload-failure state)
	ErrNoBytes = errors.New("file content not uploaded")

	// ErrMalformedRange indicates range syntax that could not be parsed
	ErrMalformedRange = errors.New("malformed range")

	// ErrUnsatisfiableRange indicates a well-formed range outside the blob bounds
	ErrUnsatisfiableRange = errors.New("range not satisfiable")

	// ErrBlobNotFound indicates a blob store entry was not found
	ErrBlobNotFound = errors.New("blob not found")
)

// ItemError represents an error related to item operations
type ItemError struct {
	ItemID uuid.UUID
	Op     string
	Err    error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("item operation %s failed for item %s: %v", e.Op, e.ItemID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to blob storage operations
type StorageError struct {
	Key string
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// RangeError represents a well-formed but unsatisfiable range request. Total
// carries the blob length so callers can render a content-range indicator.
type RangeError struct {
	Start int64
	End   int64
	Total int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %d-%d not satisfiable for length %d", e.Start, e.End, e.Total)
}

func (e *RangeError) Unwrap() error {
	return ErrUnsatisfiableRange
}
