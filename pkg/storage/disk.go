// Package storage writes exported artefacts to a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2, Spaces).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/shashiranjanraj/storefront/config"
)

// ErrInvalidPath is returned for paths that escape the disk root.
var ErrInvalidPath = errors.New("storage: invalid path")

// Disk is implemented by every driver.
type Disk interface {
	// Put writes r to p, replacing any existing object.
	Put(ctx context.Context, p string, r io.Reader) error
	Get(ctx context.Context, p string) ([]byte, error)
	Exists(ctx context.Context, p string) (bool, error)
	// Delete removes p. Missing objects are not an error.
	Delete(ctx context.Context, p string) error
	// URL returns the public location of p.
	URL(p string) string
}

// Open returns the disk selected by STORAGE_DISK.
func Open(ctx context.Context, c config.Config) (Disk, error) {
	switch c.StorageDisk {
	case "", "local":
		return NewLocalDisk(c.StorageLocalRoot, "")
	case "s3":
		return NewS3Disk(ctx, S3Options{
			Bucket:   c.S3Bucket,
			Region:   c.S3Region,
			Key:      c.S3Key,
			Secret:   c.S3Secret,
			Endpoint: c.S3Endpoint,
		})
	default:
		return nil, fmt.Errorf("storage: unknown disk %q", c.StorageDisk)
	}
}

// clean normalises p to a relative slash path and rejects traversal.
func clean(p string) (string, error) {
	c := path.Clean("/" + strings.TrimSpace(p))
	c = strings.TrimPrefix(c, "/")
	if c == "" || c == "." || strings.HasPrefix(c, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return c, nil
}
