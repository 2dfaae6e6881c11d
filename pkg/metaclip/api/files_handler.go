package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tendant/metaclip/pkg/metaclip"
)

// FilesHandler handles file item byte transfer endpoints
type FilesHandler struct {
	files *metaclip.FileServer
}

func NewFilesHandler(files *metaclip.FileServer) *FilesHandler {
	return &FilesHandler{files: files}
}

// Routes returns the router for file endpoints
func (h *FilesHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Head("/{itemID}", h.ProbeFile)
	r.Get("/{itemID}", h.DownloadFile)
	r.Put("/{itemID}", h.UploadFile)
	return r
}

// ProbeFile returns the byte length of the stored blob without content
func (h *FilesHandler) ProbeFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	size, err := h.files.Probe(r.Context(), id)
	if err != nil {
		h.writeReadError(w, id, err)
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.WriteHeader(http.StatusOK)
}

// DownloadFile serves blob bytes, honoring a single inclusive byte range
func (h *FilesHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	var rng *metaclip.ByteRange
	if header := r.Header.Get("Range"); header != "" {
		parsed, err := metaclip.ParseRangeHeader(header)
		if err != nil {
			http.Error(w, "Malformed range", http.StatusBadRequest)
			return
		}
		rng = parsed
	}

	content, err := h.files.Fetch(r.Context(), id, rng)
	if err != nil {
		var rangeErr *metaclip.RangeError
		if errors.As(err, &rangeErr) {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", rangeErr.Total))
			http.Error(w, "Range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		h.writeReadError(w, id, err)
		return
	}
	defer content.Body.Close()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(content.Length, 10))
	if content.Range != nil {
		w.Header().Set("Content-Range",
			fmt.Sprintf("bytes %d-%d/%d", content.Range.Start, content.Range.End, content.Total))
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if _, err := io.Copy(w, content.Body); err != nil {
		slog.Error("Failed to stream file", "item_id", id, "error", err)
	}
}

// UploadFile overwrites the blob bytes from a multipart body
func (h *FilesHandler) UploadFile(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing multipart file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if err := h.files.Store(r.Context(), id, file); err != nil {
		switch {
		case errors.Is(err, metaclip.ErrItemNotFound):
			http.Error(w, "Item not found", http.StatusNotFound)
		case errors.Is(err, metaclip.ErrWrongKind):
			http.Error(w, "Item is not a file", http.StatusBadRequest)
		default:
			slog.Error("Failed to store file", "item_id", id, "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	slog.Info("File uploaded", "item_id", id)
	w.WriteHeader(http.StatusCreated)
}

// writeReadError maps read-path errors for probe and download.
func (h *FilesHandler) writeReadError(w http.ResponseWriter, id uuid.UUID, err error) {
	switch {
	case errors.Is(err, metaclip.ErrItemNotFound):
		http.Error(w, "Item not found", http.StatusNotFound)
	case errors.Is(err, metaclip.ErrWrongKind):
		http.Error(w, "Item is not a file", http.StatusUnsupportedMediaType)
	case errors.Is(err, metaclip.ErrNoBytes):
		http.Error(w, "File content not uploaded", http.StatusGone)
	default:
		slog.Error("Failed to read file", "item_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *FilesHandler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "itemID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Item not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}
