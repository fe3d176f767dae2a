package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"blog_post_api/internal/pkg/uploader"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

func newRouter(h *CommonHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/upload", h.UploadFile)
	r.GET("/api/media/o/*key", h.Media)
	r.GET("/healthz", h.Healthz)
	return r
}

func multipartBody(t *testing.T, field string, files ...[]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for i, data := range files {
		part, err := w.CreateFormFile(field, "img"+string(rune('a'+i))+".png")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

type result struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func TestUploadThenServeMedia(t *testing.T) {
	store := uploader.NewMemoryStore()
	h := NewCommonHandler(uploader.NewUploader(store, "http://localhost:8080", "blog", 1000), time.Minute, nil, nil)
	r := newRouter(h)

	body, contentType := multipartBody(t, "file", pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success, res.Message)

	var publicURL string
	require.NoError(t, json.Unmarshal(res.Data, &publicURL))
	key, err := uploader.KeyFromURL(publicURL)
	require.NoError(t, err)
	assert.True(t, store.Has(key))

	u, err := url.Parse(publicURL)
	require.NoError(t, err)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, u.RequestURI(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, pngHeader, w.Body.Bytes())
}

func TestBatchUploadKeepsOrder(t *testing.T) {
	store := uploader.NewMemoryStore()
	h := NewCommonHandler(uploader.NewUploader(store, "http://localhost:8080", "blog", 0), time.Minute, nil, nil)

	body, contentType := multipartBody(t, "files", pngHeader, pngHeader, pngHeader)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, req)

	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	require.True(t, res.Success)
	var urls []string
	require.NoError(t, json.Unmarshal(res.Data, &urls))
	assert.Len(t, urls, 3)
	for _, u := range urls {
		assert.NotEmpty(t, u)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	h := NewCommonHandler(uploader.NewUploader(uploader.NewMemoryStore(), "http://localhost:8080", "blog", 0), time.Minute, nil, nil)

	body, contentType := multipartBody(t, "file", []byte("just some text, definitely not an image"))
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, req)

	var res result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "Only image files can be uploaded.", res.Message)
}

func TestMediaNotFound(t *testing.T) {
	h := NewCommonHandler(uploader.NewUploader(uploader.NewMemoryStore(), "", "blog", 0), time.Minute, nil, nil)
	w := httptest.NewRecorder()
	newRouter(h).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/media/o/blog%2Fmissing?alt=media", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthz(t *testing.T) {
	h := NewCommonHandler(uploader.NewUploader(uploader.NewMemoryStore(), "", "blog", 0), time.Minute, nil, nil)
	h.AddCheck("database", func(context.Context) error { return nil })
	r := newRouter(h)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	h.AddCheck("redis", func(context.Context) error { return errors.New("connection refused") })
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
