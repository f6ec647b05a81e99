// Package storage keeps the raw bytes of multimedia uploads.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
)

// ErrObjectNotFound is returned when no object exists under a key.
var ErrObjectNotFound = errors.New("object not found")

// Store is a flat key/value blob store.
type Store interface {
	// Put writes size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens the object under key and reports its size.
	Get(ctx context.Context, key string) (io.ReadCloser, int64, error)

	// Delete removes the object under key. Missing objects are not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the store selected by MEDIA_BACKEND.
func New(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.MediaBackend {
	case "s3":
		return NewS3Store(cfg, logger)
	case "filesystem", "":
		return NewFileSystemStore(cfg.MediaRoot, logger)
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.MediaBackend)
	}
}

// MultimediaKey is the object key for an uploaded multimedia file.
func MultimediaKey(multimediaID, fileName string) string {
	name := path.Base("/" + fileName)
	if name == "/" || name == "." {
		name = "file"
	}
	return path.Join("multimedia", multimediaID, name)
}
