package api_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uploadFile PUTs content as the multipart "file" field.
func uploadFile(t *testing.T, router http.Handler, id, content string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "upload.bin")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPut, "/file/"+id, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestProbeFileEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	t.Run("before upload", func(t *testing.T) {
		id := createItem(t, router, "file", "pending.bin")

		req := httptest.NewRequest(http.MethodHead, "/file/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusGone, w.Code)
	})

	t.Run("after upload", func(t *testing.T) {
		id := createItem(t, router, "file", "ready.bin")
		require.Equal(t, http.StatusCreated, uploadFile(t, router, id, "abcdefghij").Code)

		req := httptest.NewRequest(http.MethodHead, "/file/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "10", w.Header().Get("Content-Length"))
		assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodHead, "/file/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("text item", func(t *testing.T) {
		id := createItem(t, router, "text", "inline content")

		req := httptest.NewRequest(http.MethodHead, "/file/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})
}

func TestDownloadFileEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)
	id := createItem(t, router, "file", "data.bin")
	require.Equal(t, http.StatusCreated, uploadFile(t, router, id, "abcdefghij").Code)

	t.Run("full download", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/file/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "abcdefghij", w.Body.String())
		assert.Equal(t, "10", w.Header().Get("Content-Length"))
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
		assert.Empty(t, w.Header().Get("Content-Range"))
	})

	t.Run("range download", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/file/"+id, nil)
		req.Header.Set("Range", "bytes=2-5")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusPartialContent, w.Code)
		assert.Equal(t, "cdef", w.Body.String())
		assert.Equal(t, "4", w.Header().Get("Content-Length"))
		assert.Equal(t, "bytes 2-5/10", w.Header().Get("Content-Range"))
	})

	t.Run("unsatisfiable range", func(t *testing.T) {
		tests := []string{"bytes=0-10", "bytes=10-12", "bytes=5-2"}
		for _, header := range tests {
			req := httptest.NewRequest(http.MethodGet, "/file/"+id, nil)
			req.Header.Set("Range", header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code, header)
			assert.Equal(t, "bytes */10", w.Header().Get("Content-Range"), header)
		}
	})

	t.Run("malformed range", func(t *testing.T) {
		tests := []string{"bytes=2-", "bytes=-5", "bytes=0-1,3-4", "chunks=2-5", "bytes=a-b"}
		for _, header := range tests {
			req := httptest.NewRequest(http.MethodGet, "/file/"+id, nil)
			req.Header.Set("Range", header)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, header)
		}
	})

	t.Run("before upload", func(t *testing.T) {
		pending := createItem(t, router, "file", "empty.bin")

		req := httptest.NewRequest(http.MethodGet, "/file/"+pending, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusGone, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/file/"+uuid.NewString(), nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUploadFileEndpoint(t *testing.T) {
	router, _, _ := setupRouter(t)

	t.Run("upload then overwrite", func(t *testing.T) {
		id := createItem(t, router, "file", "doc.bin")

		assert.Equal(t, http.StatusCreated, uploadFile(t, router, id, "first version").Code)
		assert.Equal(t, http.StatusCreated, uploadFile(t, router, id, "second").Code)

		req := httptest.NewRequest(http.MethodGet, "/file/"+id, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "second", w.Body.String())
	})

	t.Run("unknown id", func(t *testing.T) {
		w := uploadFile(t, router, uuid.NewString(), "orphan bytes")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("text item", func(t *testing.T) {
		id := createItem(t, router, "text", "inline")

		w := uploadFile(t, router, id, "bytes for a text item")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		id := createItem(t, router, "file", "doc.bin")

		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		require.NoError(t, writer.WriteField("not_file", "oops"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPut, "/file/"+id, &body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-multipart body", func(t *testing.T) {
		id := createItem(t, router, "file", "doc.bin")

		req := httptest.NewRequest(http.MethodPut, "/file/"+id, strings.NewReader("raw bytes"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteRemovesFileBytes(t *testing.T) {
	router, _, store := setupRouter(t)

	id := createItem(t, router, "file", "doomed.bin")
	require.Equal(t, http.StatusCreated, uploadFile(t, router, id, "payload").Code)

	req := httptest.NewRequest(http.MethodDelete, "/items/"+id, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	_, err := store.Meta(req.Context(), id)
	assert.Error(t, err)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/file/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
