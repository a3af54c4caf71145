package storage

import (
	"context"
	"io"
	"path"

	"github.com/google/uuid"
)

// ImageStore persists uploaded images and resolves their public URLs.
type ImageStore interface {
	// Save durably writes the object under key and returns its public URL.
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

const (
	ProductImagePrefix = "product_images"
	GenericImagePrefix = "images"
)

// NewImageKey returns "<prefix>/<uuid>.<ext>".
func NewImageKey(prefix, ext string) string {
	return path.Join(prefix, uuid.NewString()+"."+ext)
}
