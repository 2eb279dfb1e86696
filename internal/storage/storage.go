package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/templui/promoproof/internal/config"
)

// Key prefixes for the three blob roles.
const (
	PrefixMaterials = "materials"
	PrefixUploads   = "uploads"
	PrefixQR        = "qr"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidPath = errors.New("invalid object path")
)

// Storage defines the interface for blob storage operations
type Storage interface {
	// Save stores a blob at the given path, replacing any existing one
	Save(ctx context.Context, path string, r io.Reader) error

	// Open returns a reader for the blob; ErrNotFound if absent
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Exists reports whether a blob is stored at path
	Exists(ctx context.Context, path string) (bool, error)

	// Delete removes the blob at the given path
	Delete(ctx context.Context, path string) error
}

// New creates the storage backend selected by STORAGE_DRIVER.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:    c.S3Region,
			Bucket:    c.S3Bucket,
			AccessKey: c.S3AccessKey,
			SecretKey: c.S3SecretKey,
			Endpoint:  c.S3Endpoint,
		})
	case "local", "":
		slog.Info("initializing local storage", "root", c.DataDir)
		return NewLocalStorage(c.DataDir, PrefixMaterials, PrefixUploads, PrefixQR)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
