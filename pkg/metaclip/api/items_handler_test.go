package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/metaclip/pkg/metaclip"
	"github.com/tendant/metaclip/pkg/metaclip/api"
	"github.com/tendant/metaclip/pkg/metaclip/hub"
	"github.com/tendant/metaclip/pkg/metaclip/repo/memory"
	memorystorage "github.com/tendant/metaclip/pkg/metaclip/storage/memory"
)

// setupRouter builds a full router over in-memory backends.
func setupRouter(t *testing.T) (http.Handler, metaclip.Service, *memorystorage.Backend) {
	t.Helper()

	catalog := memory.New()
	store := memorystorage.New()
	h := hub.New()
	t.Cleanup(h.Drain)

	svc, err := metaclip.New(
		metaclip.WithCatalog(catalog),
		metaclip.WithBlobStore(store),
		metaclip.WithEventSink(h),
	)
	require.NoError(t, err)

	server := api.NewServer(svc, metaclip.NewFileServer(catalog, store), h)
	return server.Routes(), svc, store
}

func createItem(t *testing.T, router http.Handler, kind, content string) string {
	t.Helper()

	body, err := json.Marshal(map[string]string{"kind": kind, "content": content})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/items", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	return strings.TrimSpace(w.Body.String())
}

func TestCreateItemEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	t.Run("text item returns id as plain text", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items",
			strings.NewReader(`{"kind":"text","content":"hello"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")

		_, err := uuid.Parse(w.Body.String())
		assert.NoError(t, err, "response body should be a bare uuid")
	})

	t.Run("file item", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items",
			strings.NewReader(`{"kind":"file","content":"report.pdf"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("invalid kind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items",
			strings.NewReader(`{"kind":"image","content":"x"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("missing content", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items",
			strings.NewReader(`{"kind":"text"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/items",
			strings.NewReader(`{not json`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListItemsEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	t.Run("empty catalog yields empty array", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("newest first", func(t *testing.T) {
		first := createItem(t, router, "text", "first")
		second := createItem(t, router, "text", "second")

		req := httptest.NewRequest(http.MethodGet, "/items", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var items []metaclip.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
		require.Len(t, items, 2)
		assert.Equal(t, second, items[0].ID.String())
		assert.Equal(t, first, items[1].ID.String())
		assert.Equal(t, "second", items[0].Content)
	})
}

func TestGetItemEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)
	id := createItem(t, router, "text", "keep me")

	t.Run("found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var item metaclip.Item
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
		assert.Equal(t, id, item.ID.String())
		assert.Equal(t, metaclip.ItemKindText, item.Kind)
		assert.Equal(t, "keep me", item.Content)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unparsable id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/items/not-a-uuid", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteItemEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	t.Run("existing item", func(t *testing.T) {
		id := createItem(t, router, "text", "short lived")

		req := httptest.NewRequest(http.MethodDelete, "/items/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)

		// A second delete is not found.
		w = httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/items/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/items/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}
