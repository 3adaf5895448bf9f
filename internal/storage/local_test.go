package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a parsed multipart file header the way echo hands it to handlers.
func fileHeader(t *testing.T, name, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="img"; filename="`+name+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, "/", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm.File["img"][0]
}

func TestLocal_SaveAndRemove(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLocal(dir)
	require.NoError(t, err)
	l.now = func() time.Time { return time.UnixMilli(1700000000123) }

	stored, err := l.Save(context.Background(), fileHeader(t, "shirt.png", "image/png", []byte("png-bytes")))
	require.NoError(t, err)
	assert.Equal(t, "shirt.png", stored.OriginalName)
	assert.Equal(t, "/uploads/shirt-1700000000123.png", stored.URL)

	data, err := os.ReadFile(filepath.Join(dir, "shirt-1700000000123.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	// Same name within the same millisecond gets a suffix instead of overwriting.
	second, err := l.Save(context.Background(), fileHeader(t, "shirt.png", "image/png", []byte("other")))
	require.NoError(t, err)
	assert.NotEqual(t, stored.URL, second.URL)
	assert.True(t, strings.HasPrefix(second.URL, "/uploads/shirt-1700000000123-"))

	require.NoError(t, l.Remove(context.Background(), stored.URL))
	_, err = os.Stat(filepath.Join(dir, "shirt-1700000000123.png"))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, l.Remove(context.Background(), stored.URL))
}

func TestLocal_RejectsNonImage(t *testing.T) {
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Save(context.Background(), fileHeader(t, "notes.txt", "text/plain", []byte("hi")))
	assert.ErrorIs(t, err, ErrNotImage)
}

func TestFill_RemovesPartialFile(t *testing.T) {
	dir := t.TempDir()
	dst, err := os.Create(filepath.Join(dir, "half.png"))
	require.NoError(t, err)

	src := io.MultiReader(strings.NewReader("first chunk"), iotest.ErrReader(errors.New("connection reset")))
	err = fill(dst, src)
	require.EqualError(t, err, "connection reset")

	_, err = os.Stat(filepath.Join(dir, "half.png"))
	assert.True(t, os.IsNotExist(err))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestValidate_Size(t *testing.T) {
	fh := fileHeader(t, "big.jpg", "image/jpeg", []byte("x"))
	fh.Size = MaxImageSize + 1
	assert.ErrorIs(t, Validate(fh), ErrTooLarge)
	fh.Size = MaxImageSize
	assert.NoError(t, Validate(fh))
}
