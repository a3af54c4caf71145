package storage

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MaxImageBytes is the size ceiling for a single uploaded image.
const MaxImageBytes = 10 << 20

// sniffBytes is how much of the upload is read for content detection.
const sniffBytes = 3072

// allowedImageTypes maps an accepted extension to the content type its bytes must carry.
var allowedImageTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// UploadError is a client-side upload rejection.
type UploadError struct {
	Field   string
	Message string
}

func (e *UploadError) Error() string {
	return e.Message
}

func rejectUpload(field, format string, args ...any) *UploadError {
	return &UploadError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrImageTooLarge is returned for uploads above MaxImageBytes.
var ErrImageTooLarge = rejectUpload("image", "image exceeds the %d MB limit", MaxImageBytes>>20)

// Image is a validated upload ready to be handed to an ImageStore.
type Image struct {
	Ext         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ValidateImage checks the declared size, the extension allow-list and the
// sniffed content of src. The returned Image.Body replays the sniffed bytes.
func ValidateImage(filename string, size int64, src io.Reader) (*Image, error) {
	if size > MaxImageBytes {
		return nil, ErrImageTooLarge
	}
	if size <= 0 {
		return nil, rejectUpload("image", "image is empty")
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	want, ok := allowedImageTypes[ext]
	if !ok {
		return nil, rejectUpload("image", "file type not allowed, use png, jpg, jpeg, gif or webp")
	}

	head := make([]byte, sniffBytes)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	if !detected.Is(want) {
		return nil, rejectUpload("image", "file content (%s) does not match the .%s extension", detected.String(), ext)
	}

	return &Image{
		Ext:         ext,
		ContentType: want,
		Size:        size,
		Body:        io.MultiReader(bytes.NewReader(head), src),
	}, nil
}
