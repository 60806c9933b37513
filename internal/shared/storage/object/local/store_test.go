package local

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"showdown-backend/internal/shared/storage/object"
)

func TestPutPublishOpen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := New(dir, "http://localhost:8080/assets/")

	payload := []byte("\x89PNG fake image")
	h, err := store.Put(ctx, "quiz_images/abc.png", "image/png", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	assert.Equal(t, "quiz_images/abc.png", h.Key)
	assert.Equal(t, "image/png", h.ContentType)
	assert.Equal(t, int64(len(payload)), h.SizeBytes)

	url, err := store.Publish(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/assets/quiz_images/abc.png", url)

	// Publishing again yields the same URL.
	again, err := store.Publish(ctx, h)
	require.NoError(t, err)
	assert.Equal(t, url, again)

	got, err := os.ReadFile(filepath.Join(dir, "quiz_images", "abc.png"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	entries, err := os.ReadDir(filepath.Join(dir, "quiz_images"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestPutRejectsEscapingKey(t *testing.T) {
	store := New(t.TempDir(), "http://localhost/assets")

	_, err := store.Put(context.Background(), "../outside.png", "image/png", bytes.NewReader([]byte("x")), 1)
	assert.True(t, errors.Is(err, object.ErrInvalidKey))
}

func TestPutShortWriteLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	store := New(dir, "http://localhost/assets")

	_, err := store.Put(context.Background(), "quiz_images/short.png", "image/png", bytes.NewReader([]byte("abc")), 10)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "quiz_images"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishMissingObject(t *testing.T) {
	store := New(t.TempDir(), "http://localhost/assets")

	_, err := store.Publish(context.Background(), object.Handle{Key: "quiz_images/missing.png"})
	assert.Error(t, err)
}

func TestPutHonorsCanceledContext(t *testing.T) {
	store := New(t.TempDir(), "http://localhost/assets")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "quiz_images/a.png", "image/png", bytes.NewReader([]byte("x")), 1)
	assert.ErrorIs(t, err, context.Canceled)
}
