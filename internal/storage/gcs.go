package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
)

// GCS stores images in a Cloud Storage bucket under the items/ prefix.
type GCS struct {
	client *storage.Client
	bucket string
}

func NewGCS(ctx context.Context, bucket string) (*GCS, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

func (g *GCS) publicBase() string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/", g.bucket)
}

func (g *GCS) Save(ctx context.Context, fh *multipart.FileHeader) (Stored, error) {
	if err := Validate(fh); err != nil {
		return Stored{}, err
	}
	src, err := fh.Open()
	if err != nil {
		return Stored{}, err
	}
	defer src.Close()

	objectPath := "items/" + uuid.NewString() + strings.ToLower(path.Ext(fh.Filename))
	w := g.client.Bucket(g.bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = fh.Header.Get("Content-Type")
	w.Metadata = map[string]string{"originalName": fh.Filename}
	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return Stored{}, err
	}
	if err := w.Close(); err != nil {
		return Stored{}, err
	}
	return Stored{OriginalName: fh.Filename, URL: g.publicBase() + objectPath}, nil
}

func (g *GCS) Remove(ctx context.Context, url string) error {
	objectPath := strings.TrimPrefix(url, g.publicBase())
	if objectPath == url {
		return nil
	}
	err := g.client.Bucket(g.bucket).Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

func (g *GCS) Close() error {
	return g.client.Close()
}
