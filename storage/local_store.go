package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// defaultUploadDir is the base directory for images when none is configured.
const defaultUploadDir = "uploads"

// LocalImageStore implements ImageStore on the local file system. Objects
// are served back from URLPrefix by a static file handler.
type LocalImageStore struct {
	basePath  string
	urlPrefix string
}

// NewLocalImageStore creates a new LocalImageStore.
// If basePath is empty, it defaults to defaultUploadDir.
func NewLocalImageStore(basePath, urlPrefix string) *LocalImageStore {
	if basePath == "" {
		basePath = defaultUploadDir
	}
	return &LocalImageStore{basePath: basePath, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalImageStore) BasePath() string {
	return s.basePath
}

func (s *LocalImageStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(clean)), nil
}

// Save writes to a temporary file in the target directory, syncs it and
// renames it into place, so a reader never observes a partial image.
func (s *LocalImageStore) Save(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create storage directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := io.Copy(tmp, body); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to sync image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close image: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to set image permissions: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to move image into place: %w", err)
	}

	zap.L().Debug("stored image", zap.String("path", fullPath))
	return s.urlPrefix + "/" + path.Clean(key), nil
}

func (s *LocalImageStore) Delete(_ context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}
