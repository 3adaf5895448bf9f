package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Local writes files under Dir and serves them from PublicPrefix.
type Local struct {
	Dir          string
	PublicPrefix string
	now          func() time.Time
}

func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Dir: dir, PublicPrefix: "/uploads", now: time.Now}, nil
}

func (l *Local) Save(_ context.Context, fh *multipart.FileHeader) (Stored, error) {
	if err := Validate(fh); err != nil {
		return Stored{}, err
	}
	original := fh.Filename
	if decoded, err := url.QueryUnescape(original); err == nil {
		original = decoded
	}
	name := filepath.Base(original)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	src, err := fh.Open()
	if err != nil {
		return Stored{}, err
	}
	defer src.Close()

	filename := fmt.Sprintf("%s-%d%s", base, l.now().UnixMilli(), ext)
	dst, err := os.OpenFile(filepath.Join(l.Dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		filename = fmt.Sprintf("%s-%d-%s%s", base, l.now().UnixMilli(), uuid.NewString()[:8], ext)
		dst, err = os.OpenFile(filepath.Join(l.Dir, filename), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return Stored{}, err
	}
	if err := fill(dst, src); err != nil {
		return Stored{}, err
	}
	return Stored{OriginalName: original, URL: l.PublicPrefix + "/" + filename}, nil
}

// fill copies src into dst and closes it. dst is removed if either step fails.
func fill(dst *os.File, src io.Reader) error {
	_, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst.Name())
	}
	return err
}

// Remove deletes the file behind a public URL. Missing files are not an error.
func (l *Local) Remove(_ context.Context, publicURL string) error {
	err := os.Remove(filepath.Join(l.Dir, filepath.Base(publicURL)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
