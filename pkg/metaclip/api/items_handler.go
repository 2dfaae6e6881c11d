package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/metaclip/pkg/metaclip"
)

// ItemsHandler handles item CRUD API endpoints
type ItemsHandler struct {
	service metaclip.Service
}

func NewItemsHandler(service metaclip.Service) *ItemsHandler {
	return &ItemsHandler{service: service}
}

// Routes returns the router for items endpoints
func (h *ItemsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.CreateItem)
	r.Get("/", h.ListItems)
	r.Get("/{itemID}", h.GetItem)
	r.Delete("/{itemID}", h.DeleteItem)
	return r
}

// CreateItemRequest represents the request to create a new item
type CreateItemRequest struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// CreateItem creates a new item and returns its generated id as plain text
func (h *ItemsHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req CreateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Failed to decode request", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	item, err := h.service.CreateItem(r.Context(), metaclip.CreateItemRequest{
		Kind:    metaclip.ItemKind(req.Kind),
		Content: req.Content,
	})
	if err != nil {
		switch {
		case errors.Is(err, metaclip.ErrInvalidKind):
			http.Error(w, "Invalid item kind", http.StatusUnprocessableEntity)
		case errors.Is(err, metaclip.ErrMissingContent):
			http.Error(w, "Missing item content", http.StatusBadRequest)
		default:
			slog.Error("Failed to create item", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	slog.Info("Item created", "item_id", item.ID, "kind", item.Kind)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write([]byte(item.ID.String()))
}

// ListItems returns all items, most recently created first
func (h *ItemsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		slog.Error("Failed to list items", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []*metaclip.Item{}
	}
	render.JSON(w, r, items)
}

// GetItem returns a single item by id
func (h *ItemsHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	item, err := h.service.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, metaclip.ErrItemNotFound) {
			http.Error(w, "Item not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get item", "item_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	render.JSON(w, r, item)
}

// DeleteItem removes an item by id
func (h *ItemsHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.itemID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, metaclip.ErrItemNotFound) {
			http.Error(w, "Item not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete item", "item_id", id, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	slog.Info("Item deleted", "item_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// itemID parses the URL parameter. The id space is opaque UUIDs, so a value
// that does not parse can never name an item and behaves as not found.
func (h *ItemsHandler) itemID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := chi.URLParam(r, "itemID")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Item not found", http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}
