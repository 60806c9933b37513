package local

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"showdown-backend/internal/shared/storage/object"
)

// Store implements BlobStore using the local filesystem.
// Published objects are expected to be served statically from baseDir.
type Store struct {
	baseDir       string
	publicBaseURL string
}

// New creates a new local object store rooted at baseDir.
func New(baseDir, publicBaseURL string) *Store {
	return &Store{
		baseDir:       baseDir,
		publicBaseURL: strings.TrimRight(strings.TrimSpace(publicBaseURL), "/"),
	}
}

// Put writes the reader to disk at key. The file appears atomically.
func (s *Store) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (object.Handle, error) {
	if err := ctx.Err(); err != nil {
		return object.Handle{}, err
	}
	clean, err := object.CleanKey(key)
	if err != nil {
		return object.Handle{}, err
	}

	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(clean))
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return object.Handle{}, fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return object.Handle{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	written, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return object.Handle{}, fmt.Errorf("write body: %w", err)
	}
	if size >= 0 && written != size {
		tmp.Close()
		return object.Handle{}, fmt.Errorf("short write: wrote %d of %d bytes", written, size)
	}
	if err := tmp.Close(); err != nil {
		return object.Handle{}, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return object.Handle{}, fmt.Errorf("chmod: %w", err)
	}
	if err := os.Rename(tmpName, fullPath); err != nil {
		return object.Handle{}, fmt.Errorf("rename: %w", err)
	}
	committed = true

	return object.Handle{Key: clean, ContentType: contentType, SizeBytes: written}, nil
}

// Publish confirms the object exists and returns its public URL.
func (s *Store) Publish(ctx context.Context, h object.Handle) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := object.CleanKey(h.Key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, filepath.FromSlash(clean))); err != nil {
		return "", fmt.Errorf("stat object: %w", err)
	}
	return s.publicBaseURL + "/" + clean, nil
}

var _ object.BlobStore = (*Store)(nil)
