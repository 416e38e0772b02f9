package storage

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound is returned by Read when no object exists for the key.
var ErrNotFound = errors.New("storage: object not found")

// Storage is a flat key/value blob store for uploaded attachments and avatars.
type Storage interface {
	// Write stores content from the reader under key. size is the expected
	// content size, or -1 if unknown.
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read opens the object stored under key. The caller closes it.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the object stored under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the address clients use to fetch the object.
	URL(key string) string
}

// Config selects and configures a storage backend.
type Config struct {
	Driver    string // local, s3
	PublicURL string // URL prefix returned by Storage.URL
	Local     LocalConfig
	S3        S3Config
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStorage(cfg.Local, cfg.PublicURL)
	case "s3":
		return NewS3Storage(ctx, cfg.S3, cfg.PublicURL)
	default:
		return nil, errors.New("storage: unsupported driver " + cfg.Driver)
	}
}

func joinURL(prefix, key string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}
