package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// a 1x1 transparent PNG
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func fileHeader(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads/")
	require.NoError(t, err)
	store.now = func() time.Time { return time.UnixMilli(1700000000123) }

	ref, err := store.Save(fileHeader(t, "Icon.PNG", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, "/uploads/1700000000123-"), ref)
	assert.True(t, strings.HasSuffix(ref, ".png"), ref)

	stored, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)
}

func TestSaveRejectsNonMedia(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/uploads")
	require.NoError(t, err)

	_, err = store.Save(fileHeader(t, "notes.txt", []byte("just text")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveNamesFileByDetectedContent(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads")
	require.NoError(t, err)

	ref, err := store.Save(fileHeader(t, "evil.html", []byte("GIF89a<html><script>alert(1)</script></html>")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".gif"), ref)
	assert.NotContains(t, ref, ".html")

	ref, err = store.Save(fileHeader(t, "icon.jpg", pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"), ref)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, "/uploads")
	require.NoError(t, err)

	ref, err := store.Save(fileHeader(t, "icon.png", pngBytes))
	require.NoError(t, err)
	require.NoError(t, store.Remove(ref))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.NoError(t, store.Remove(ref), "removing twice is harmless")
	assert.NoError(t, store.Remove("https://youtu.be/abc"))
	assert.NoError(t, store.Remove("/uploads/../upload.go"))
}
