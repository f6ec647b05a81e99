package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// FileSystemStore implements Store on a local directory.
type FileSystemStore struct {
	rootDir string
	logger  *zap.Logger
}

// NewFileSystemStore creates the root directory if needed.
func NewFileSystemStore(rootDir string, logger *zap.Logger) (*FileSystemStore, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create media directory: %w", err)
	}
	logger.Info("Using filesystem media store", zap.String("root", rootDir))
	return &FileSystemStore{rootDir: rootDir, logger: logger}, nil
}

// path maps a key below the root; cleaning against "/" drops any "..".
func (s *FileSystemStore) path(key string) string {
	clean := filepath.Clean(string(filepath.Separator) + filepath.FromSlash(key))
	return filepath.Join(s.rootDir, clean)
}

// Put implements Store.Put.
func (s *FileSystemStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target := s.path(key)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	f, err := os.CreateTemp(filepath.Dir(target), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create media file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write media file: %w", err)
	}

	if err := os.Rename(f.Name(), target); err != nil {
		return fmt.Errorf("failed to store media file: %w", err)
	}

	s.logger.Debug("Stored media file", zap.String("key", key), zap.Int64("size", size))
	return nil
}

// Get implements Store.Get.
func (s *FileSystemStore) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	f, err := os.Open(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ErrObjectNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open media file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, fmt.Errorf("failed to stat media file: %w", err)
	}

	return f, info.Size(), nil
}

// Delete implements Store.Delete.
func (s *FileSystemStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete media file: %w", err)
	}
	return nil
}
