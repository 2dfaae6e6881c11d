package memory

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/tendant/metaclip/pkg/metaclip"
)

// Backend is an in-memory implementation of the metaclip.BlobStore interface
type Backend struct {
	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	data      []byte
	updatedAt time.Time
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		entries: make(map[string]entry),
	}
}

// Provision creates an empty entry at key, leaving existing bytes intact.
func (b *Backend) Provision(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[key]; !exists {
		b.entries[key] = entry{data: []byte{}, updatedAt: time.Now()}
	}
	return nil
}

// Store overwrites the entry at key from r.
func (b *Backend) Store(ctx context.Context, key string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[key] = entry{data: data, updatedAt: time.Now()}
	return nil
}

// Open returns a reader over the full entry at key.
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, exists := b.entries[key]
	if !exists {
		return nil, metaclip.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(e.data)), nil
}

// OpenRange returns a reader over the inclusive byte range [start, end].
func (b *Backend) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, exists := b.entries[key]
	if !exists {
		return nil, metaclip.ErrBlobNotFound
	}
	return io.NopCloser(bytes.NewReader(e.data[start : end+1])), nil
}

// Meta retrieves metadata for the entry at key.
func (b *Backend) Meta(ctx context.Context, key string) (*metaclip.BlobMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, exists := b.entries[key]
	if !exists {
		return nil, metaclip.ErrBlobNotFound
	}
	return &metaclip.BlobMeta{
		Key:       key,
		Size:      int64(len(e.data)),
		UpdatedAt: e.updatedAt,
	}, nil
}

// Delete removes the entry at key.
func (b *Backend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.entries[key]; !exists {
		return metaclip.ErrBlobNotFound
	}
	delete(b.entries, key)
	return nil
}
