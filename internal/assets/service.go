package assets

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"showdown-backend/internal/shared/metrics"
	"showdown-backend/internal/shared/storage/object"
)

// DefaultMaxBytes caps a single upload at 20 MiB.
const DefaultMaxBytes int64 = 20 << 20

var tracer = otel.Tracer("showdown-backend/internal/assets")

// Service ingests image uploads into the blob store.
type Service struct {
	Store    object.BlobStore
	MaxBytes int64
	// Random supplies key entropy. Defaults to crypto/rand.
	Random io.Reader
}

// Ingest stores body under a fresh key and returns its public URL.
// body is closed before Ingest returns, whatever the outcome.
func (s *Service) Ingest(ctx context.Context, contentType string, body io.ReadCloser) (asset Asset, err error) {
	defer body.Close()

	start := time.Now()
	ctx, span := tracer.Start(ctx, "assets.Ingest", trace.WithSpanKind(trace.SpanKindInternal))
	defer func() {
		if err != nil {
			metrics.IncAssetIngestFailures()
			span.RecordError(err)
			span.SetStatus(codes.Error, "ingest failed")
		} else {
			metrics.IncAssetIngests()
			metrics.ObserveAssetIngestDurationMs(float64(time.Since(start).Microseconds()) / 1000.0)
		}
		span.End()
	}()

	contentType = strings.TrimSpace(contentType)
	span.SetAttributes(attribute.String("asset.content_type", contentType))
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return Asset{}, fmt.Errorf("%w: %q", ErrUnsupportedType, contentType)
	}
	mediaType := baseMediaType(contentType)

	maxBytes := s.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, readErr := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if readErr != nil {
		return Asset{}, fmt.Errorf("%w: read upload: %w", ErrInvalidInput, readErr)
	}
	if int64(len(data)) > maxBytes {
		return Asset{}, ErrTooLarge
	}
	if len(data) == 0 {
		return Asset{}, ErrEmptyUpload
	}

	random := s.Random
	if random == nil {
		random = rand.Reader
	}
	key, keyErr := NewKey(random, mediaType)
	if keyErr != nil {
		return Asset{}, fmt.Errorf("%w: %w", ErrStorageFailure, keyErr)
	}
	span.SetAttributes(attribute.String("asset.key", key))

	handle, putErr := s.Store.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if putErr != nil {
		return Asset{}, fmt.Errorf("%w: put %s: %w", ErrStorageFailure, key, putErr)
	}
	url, pubErr := s.Store.Publish(ctx, handle)
	if pubErr != nil {
		return Asset{}, fmt.Errorf("%w: publish %s: %w", ErrStorageFailure, key, pubErr)
	}

	return Asset{
		Key:         key,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		URL:         url,
	}, nil
}

// baseMediaType strips parameters from a declared content type. Malformed
// parameters fall back to the text before the first ';'.
func baseMediaType(contentType string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	base, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}
