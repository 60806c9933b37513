package object

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
)

// ErrInvalidKey is returned when a storage key would escape the store root.
var ErrInvalidKey = errors.New("invalid storage key")

// Handle identifies a stored object.
type Handle struct {
	Key         string
	ContentType string
	SizeBytes   int64
}

// BlobStore is a key/value store for binary objects that can expose them publicly.
// Publish is idempotent and returns the object's public URL.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (Handle, error)
	Publish(ctx context.Context, h Handle) (string, error)
}

// CleanKey normalizes a slash-separated key and rejects absolute or parent-relative keys.
func CleanKey(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") || strings.Contains(trimmed, "\\") {
		return "", ErrInvalidKey
	}
	clean := path.Clean(trimmed)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidKey
	}
	return clean, nil
}
