package metaclip

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// service implements the Service interface
type service struct {
	catalog Catalog
	blobs   BlobStore
	events  EventSink
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithCatalog sets the catalog for the service
func WithCatalog(catalog Catalog) Option {
	return func(s *service) {
		s.catalog = catalog
	}
}

// WithBlobStore sets the blob storage backend
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.blobs = store
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.events = sink
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.catalog == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	if s.blobs == nil {
		return nil, fmt.Errorf("blob store is required")
	}
	if s.events == nil {
		s.events = NewNoopEventSink()
	}

	return s, nil
}

func (s *service) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	if !req.Kind.IsValid() {
		return nil, fmt.Errorf("create item: %w", ErrInvalidKind)
	}
	if req.Content == "" {
		return nil, fmt.Errorf("create item: %w", ErrMissingContent)
	}

	item := &Item{
		ID:        uuid.New(),
		Kind:      req.Kind,
		CreatedAt: time.Now().UTC(),
	}
	if req.Kind == ItemKindText {
		item.Content = req.Content
	}

	// Provision the blob entry before the row commits so the file server sees
	// a fresh file item as "exists, no bytes yet" instead of "not found". The
	// two steps are not wrapped in a transaction; a crash in between leaves an
	// orphaned empty blob, which nothing ever trusts as proof of an item.
	if item.Kind == ItemKindFile {
		if err := s.blobs.Provision(ctx, item.ID.String()); err != nil {
			return nil, &ItemError{
				ItemID: item.ID,
				Op:     "provision",
				Err:    err,
			}
		}
	}

	if err := s.catalog.CreateItem(ctx, item); err != nil {
		return nil, &ItemError{
			ItemID: item.ID,
			Op:     "create",
			Err:    err,
		}
	}

	if err := s.events.ItemCreated(ctx, item); err != nil {
		slog.Warn("created event delivery failed", "item_id", item.ID, "error", err)
	}

	return item, nil
}

func (s *service) GetItem(ctx context.Context, id uuid.UUID) (*Item, error) {
	return s.catalog.GetItem(ctx, id)
}

func (s *service) ListItems(ctx context.Context) ([]*Item, error) {
	return s.catalog.ListItems(ctx)
}

func (s *service) DeleteItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.catalog.GetItem(ctx, id)
	if err != nil {
		return err
	}

	// The row removal is the authoritative deletion.
	if err := s.catalog.DeleteItem(ctx, id); err != nil {
		return &ItemError{
			ItemID: id,
			Op:     "delete",
			Err:    err,
		}
	}

	// Best-effort blob cleanup; a failure here never rolls back the deletion.
	if item.Kind == ItemKindFile {
		if err := s.blobs.Delete(ctx, id.String()); err != nil {
			slog.Warn("blob cleanup failed", "item_id", id, "error", err)
		}
	}

	if err := s.events.ItemDeleted(ctx, id); err != nil {
		slog.Warn("deleted event delivery failed", "item_id", id, "error", err)
	}

	return nil
}
