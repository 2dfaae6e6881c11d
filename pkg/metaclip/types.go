package metaclip

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind is the domain type for item payload kinds.
type ItemKind string

// Item kind constants (typed). The set is fixed; creation rejects anything else.
const (
	ItemKindText ItemKind = "text"
	ItemKindFile ItemKind = "file"
)

// IsValid reports whether the kind is one of the accepted values.
func (k ItemKind) IsValid() bool {
	return k == ItemKindText || k == ItemKindFile
}

// Item represents a stored text payload or a reference to stored file bytes.
//
// The id doubles as the catalog primary key and, for file items, as the blob
// store key. File items carry no inline content; their bytes live only in the
// blob store and are fetched through the file server.
type Item struct {
	ID        uuid.UUID `json:"id"`
	Kind      ItemKind  `json:"kind"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventType is the domain type for catalog change notifications.
type EventType string

// Event type constants (typed).
const (
	EventItemCreated EventType = "created"
	EventItemDeleted EventType = "deleted"
)

// Event is a change notification fanned out to live connections after a
// catalog mutation commits.
type Event struct {
	Type   EventType `json:"type"`
	ItemID uuid.UUID `json:"item_id"`
}

// CreateItemRequest contains parameters for creating an item.
type CreateItemRequest struct {
	Kind    ItemKind
	Content string
}

// ByteRange is an inclusive byte range into a blob, 0-indexed. End is
// inclusive, matching HTTP range semantics, not a half-open interval.
type ByteRange struct {
	Start int64
	End   int64
}

// Length returns the number of bytes the range covers.
func (r ByteRange) Length() int64 {
	return r.End - r.Start + 1
}
