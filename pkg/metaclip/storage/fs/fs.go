package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/metaclip/pkg/metaclip"
)

// Backend is a filesystem implementation of the metaclip.BlobStore interface.
// Entries are flat files under the base directory, named by key. Stores go
// through a temp file and rename so readers never observe a partial write.
type Backend struct {
	baseDir string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir string // Base directory for storing files
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	abs, err := filepath.Abs(config.BaseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(abs, "tmp"), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create tmp directory: %w", err)
	}

	return &Backend{baseDir: abs}, nil
}

// Provision creates an empty entry at key. Existing bytes are left intact.
func (b *Backend) Provision(ctx context.Context, key string) error {
	path, err := b.pathFromKey(key)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to provision entry: %w", err)
	}
	return f.Close()
}

// Store overwrites the entry at key from r via a temp file and rename.
func (b *Backend) Store(ctx context.Context, key string, r io.Reader) error {
	path, err := b.pathFromKey(key)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Join(b.baseDir, "tmp"), "put-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}

	if _, err := io.Copy(tmp, r); err != nil {
		cleanup()
		return fmt.Errorf("failed to write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to publish entry: %w", err)
	}

	return nil
}

// Open returns a reader over the full entry at key.
func (b *Backend) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := b.pathFromKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, metaclip.ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open entry: %w", err)
	}
	return f, nil
}

// OpenRange returns a reader over the inclusive byte range [start, end].
func (b *Backend) OpenRange(ctx context.Context, key string, start, end int64) (io.ReadCloser, error) {
	path, err := b.pathFromKey(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, metaclip.ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open entry: %w", err)
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to seek entry: %w", err)
	}

	return &sectionReader{
		r: io.LimitReader(f, end-start+1),
		c: f,
	}, nil
}

// Meta retrieves metadata for the entry at key without reading content.
func (b *Backend) Meta(ctx context.Context, key string) (*metaclip.BlobMeta, error) {
	path, err := b.pathFromKey(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, metaclip.ErrBlobNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat entry: %w", err)
	}

	return &metaclip.BlobMeta{
		Key:       key,
		Size:      info.Size(),
		UpdatedAt: info.ModTime(),
	}, nil
}

// Delete removes the entry at key.
func (b *Backend) Delete(ctx context.Context, key string) error {
	path, err := b.pathFromKey(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); errors.Is(err, os.ErrNotExist) {
		return metaclip.ErrBlobNotFound
	} else if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}

// pathFromKey maps a key to its flat file path. Keys are item ids, but path
// elements are rejected regardless so a hostile key cannot escape the base
// directory.
func (b *Backend) pathFromKey(key string) (string, error) {
	if key == "" {
		return "", errors.New("blob key is required")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid blob key %q", key)
	}
	return filepath.Join(b.baseDir, key), nil
}

// sectionReader pairs a limited reader with the file it must close.
type sectionReader struct {
	r io.Reader
	c io.Closer
}

func (s *sectionReader) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

func (s *sectionReader) Close() error {
	return s.c.Close()
}
