package metaclip

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// Catalog defines the interface for durable item metadata persistence.
//
// Implementations are relied on for per-row atomicity of single statements;
// the design does not assume cross-statement transactions.
type Catalog interface {
	// CreateItem persists a new item row
	CreateItem(ctx context.Context, item *Item) error

	// GetItem returns the item, or ErrItemNotFound
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)

	// ListItems returns all items, most recently created first
	ListItems(ctx context.Context) ([]*Item, error)

	// DeleteItem removes the row, or returns ErrItemNotFound
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

// BlobStore defines the interface for blob byte persistence. Keys are item
// ids in canonical textual form.
type BlobStore interface {
	// Provision creates an empty entry at key, leaving existing bytes intact
	Provision(ctx context.Context, key string) error

	// Store overwrites the entry at key from reader. The write is atomic from
	// a reader's perspective: no partially-written entry is ever observable.
	Store(ctx context.Context, key string, r io.Reader) error

	// Open returns a reader over the full entry, or ErrBlobNotFound
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// OpenRange returns a reader over the inclusive byte range [start, end].
	// Bounds are assumed validated against Meta by the caller.
	OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)

	// Meta retrieves metadata without transferring content, or ErrBlobNotFound
	Meta(ctx context.Context, key string) (*BlobMeta, error)

	// Delete removes the entry, or returns ErrBlobNotFound
	Delete(ctx context.Context, key string) error
}

// BlobMeta contains metadata about a stored blob.
type BlobMeta struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// EventSink defines the interface for change-event handling. The service
// fires these after the mutation is durable, never before.
type EventSink interface {
	// ItemCreated is fired when an item is created
	ItemCreated(ctx context.Context, item *Item) error

	// ItemDeleted is fired when an item is deleted
	ItemDeleted(ctx context.Context, itemID uuid.UUID) error
}

// Service is the primary interface for item operations.
type Service interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (*Item, error)
	ListItems(ctx context.Context) ([]*Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
}
