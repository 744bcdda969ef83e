package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for object keys that escape the bucket.
var ErrInvalidKey = errors.New("invalid object key")

// LocalStorage persists objects on disk under baseDir/bucket, mimicking a named bucket.
type LocalStorage struct {
	root   string
}

// NewLocalStorage ensures the bucket directory exists and returns a handle.
func NewLocalStorage(baseDir, bucket string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage"
	}
	if bucket == "" {
		return nil, fmt.Errorf("bucket name required")
	}
	root := filepath.Join(baseDir, bucket)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create bucket directory: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// SaveStream copies from reader into the object identified by key and returns the stored key.
// A partially written object is removed when the copy fails.
func (s *LocalStorage) SaveStream(key string, r io.Reader) (string, error) {
	target, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare object directory: %w", err)
	}
	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create object %s: %w", key, err)
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()      //nolint:errcheck
		os.Remove(target) //nolint:errcheck
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := file.Close(); err != nil {
		os.Remove(target) //nolint:errcheck
		return "", fmt.Errorf("close object %s: %w", key, err)
	}
	return key, nil
}

// Open returns a read-only handle for the stored object.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	target, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open object %s: %w", key, err)
	}
	return file, nil
}

func (s *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(key)
	if clean != key || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}
