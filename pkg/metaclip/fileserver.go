package metaclip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// FileServer is the bulk byte-transfer path for file items. It bypasses the
// item service but still resolves ids through the catalog to validate the
// item's existence and kind.
type FileServer struct {
	catalog Catalog
	blobs   BlobStore
}

// NewFileServer creates a file server over the given catalog and blob store.
func NewFileServer(catalog Catalog, blobs BlobStore) *FileServer {
	return &FileServer{
		catalog: catalog,
		blobs:   blobs,
	}
}

// FileContent is the result of a fetch. Range is non-nil for partial content.
type FileContent struct {
	Body   io.ReadCloser
	Length int64      // bytes readable from Body
	Total  int64      // total blob size
	Range  *ByteRange // satisfied range, nil for a full fetch
}

// resolve validates the id against the catalog before any blob access.
func (f *FileServer) resolve(ctx context.Context, id uuid.UUID) error {
	item, err := f.catalog.GetItem(ctx, id)
	if err != nil {
		return err
	}
	if item.Kind != ItemKindFile {
		return fmt.Errorf("item %s has kind %q: %w", id, item.Kind, ErrWrongKind)
	}
	return nil
}

// Probe returns the byte length of the stored blob without transferring
// content. A missing or still-empty blob (the two-phase creation gap) yields
// ErrNoBytes, distinct from ErrItemNotFound.
func (f *FileServer) Probe(ctx context.Context, id uuid.UUID) (int64, error) {
	if err := f.resolve(ctx, id); err != nil {
		return 0, err
	}

	meta, err := f.blobs.Meta(ctx, id.String())
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return 0, fmt.Errorf("item %s: %w", id, ErrNoBytes)
		}
		return 0, err
	}
	if meta.Size == 0 {
		return 0, fmt.Errorf("item %s: %w", id, ErrNoBytes)
	}
	return meta.Size, nil
}

// Fetch returns the blob content. With rng nil the full blob is returned;
// otherwise the inclusive range is validated against the current length and
// either satisfied exactly or rejected with a RangeError. Only single ranges
// are supported.
func (f *FileServer) Fetch(ctx context.Context, id uuid.UUID, rng *ByteRange) (*FileContent, error) {
	size, err := f.Probe(ctx, id)
	if err != nil {
		return nil, err
	}

	key := id.String()

	if rng == nil {
		body, err := f.blobs.Open(ctx, key)
		if err != nil {
			return nil, &StorageError{Key: key, Op: "open", Err: err}
		}
		return &FileContent{Body: body, Length: size, Total: size}, nil
	}

	if rng.Start < 0 || rng.Start > rng.End || rng.End >= size {
		return nil, &RangeError{Start: rng.Start, End: rng.End, Total: size}
	}

	body, err := f.blobs.OpenRange(ctx, key, rng.Start, rng.End)
	if err != nil {
		return nil, &StorageError{Key: key, Op: "open_range", Err: err}
	}
	return &FileContent{
		Body:   body,
		Length: rng.Length(),
		Total:  size,
		Range:  rng,
	}, nil
}

// Store overwrites the blob for a file item from r. The catalog row must
// already exist with kind file. No broadcast event is emitted; uploads are
// not catalog-visible changes.
func (f *FileServer) Store(ctx context.Context, id uuid.UUID, r io.Reader) error {
	if err := f.resolve(ctx, id); err != nil {
		return err
	}

	key := id.String()
	if err := f.blobs.Store(ctx, key, r); err != nil {
		return &StorageError{Key: key, Op: "store", Err: err}
	}
	return nil
}

// ParseRangeHeader parses a single-range HTTP Range header of the form
// "bytes=start-end" with both bounds present. Anything else, including
// multi-range and open-ended forms, is ErrMalformedRange. Bounds are not
// checked against any blob here; that is Fetch's job.
func ParseRangeHeader(header string) (*ByteRange, error) {
	spec, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}
	startStr, endStr, ok := strings.Cut(spec, "-")
	if !ok || strings.Contains(endStr, ",") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	start, err := strconv.ParseUint(startStr, 10, 63)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}
	end, err := strconv.ParseUint(endStr, 10, 63)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrMalformedRange, header)
	}

	return &ByteRange{Start: int64(start), End: int64(end)}, nil
}
