// Package storage persists uploaded item images.
package storage

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"
)

const MaxImageSize = 5 << 20

var (
	ErrNotImage = errors.New("이미지 파일만 업로드할 수 있습니다.")
	ErrTooLarge = errors.New("파일 크기는 5MB 이하여야 합니다.")
)

// Stored describes a saved file.
type Stored struct {
	OriginalName string
	URL          string
}

type Uploader interface {
	Save(ctx context.Context, fh *multipart.FileHeader) (Stored, error)
	Remove(ctx context.Context, url string) error
}

// Validate accepts image/* uploads up to MaxImageSize.
func Validate(fh *multipart.FileHeader) error {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return ErrNotImage
	}
	if fh.Size > MaxImageSize {
		return ErrTooLarge
	}
	return nil
}
