package uploader

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newFileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func TestUploadFile(t *testing.T) {
	store := NewMemoryStore()
	u := NewUploader(store, "http://localhost:8080/", "blog", 1000000)

	imageURL, err := u.UploadFile(context.Background(), newFileHeader(t, "cat.png", pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(imageURL, "http://localhost:8080/api/media/o/blog%2F"), imageURL)
	assert.True(t, strings.HasSuffix(imageURL, "?alt=media"))

	key, err := KeyFromURL(imageURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "blog/"))
	assert.True(t, store.Has(key))

	body, contentType, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	defer body.Close()
	data, _ := io.ReadAll(body)
	assert.Equal(t, pngHeader, data, "stored bytes must include the sniffed prefix")
	assert.Equal(t, "image/png", contentType)
}

func TestUploadFileValidation(t *testing.T) {
	u := NewUploader(NewMemoryStore(), "http://localhost", "blog", 16)

	_, err := u.UploadFile(context.Background(), newFileHeader(t, "big.png", append(pngHeader, make([]byte, 64)...)))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	u = NewUploader(NewMemoryStore(), "http://localhost", "blog", 0)
	_, err = u.UploadFile(context.Background(), newFileHeader(t, "notes.txt", []byte("just some text")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestKeyFromURL(t *testing.T) {
	t.Run("firebase style url", func(t *testing.T) {
		key, err := KeyFromURL("https://firebasestorage.googleapis.com/v0/b/app.appspot.com/o/blog%2F1234-abcd?alt=media&token=x")
		require.NoError(t, err)
		assert.Equal(t, "blog/1234-abcd", key)
	})

	t.Run("no query string", func(t *testing.T) {
		key, err := KeyFromURL("http://localhost/api/media/o/blog%2Fabc")
		require.NoError(t, err)
		assert.Equal(t, "blog/abc", key)
	})

	t.Run("unparseable", func(t *testing.T) {
		for _, in := range []string{"https://x/y.png", "http://host/o/?alt=media", "http://host/o/%zz"} {
			_, err := KeyFromURL(in)
			assert.ErrorIs(t, err, ErrInvalidImageURL, in)
		}
	})
}

func TestDeleteByURL(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "blog/abc", bytes.NewReader(pngHeader), "image/png"))
	u := NewUploader(store, "http://localhost", "blog", 0)

	require.NoError(t, u.DeleteByURL(context.Background(), u.PublicURL("blog/abc")))
	assert.False(t, store.Has("blog/abc"))

	assert.ErrorIs(t, u.DeleteByURL(context.Background(), "https://x/y.png"), ErrInvalidImageURL)
}
