package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Storage is the object store generated media is written to.
type Storage interface {
	// Put stores an object under key.
	Put(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Delete removes an object. Returns nil if it doesn't exist.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for key.
	URL(key string) string
}

// Config for S3 or any S3-compatible endpoint (MinIO, R2).
type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// MediaKey builds the object key for a generated asset,
// e.g. media/<user>/image/<id>.jpg.
func MediaKey(userID, kind, id, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		return fmt.Sprintf("media/%s/%s/%s", userID, kind, id)
	}
	return fmt.Sprintf("media/%s/%s/%s.%s", userID, kind, id, ext)
}
