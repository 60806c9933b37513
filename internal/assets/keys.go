package assets

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const keyPrefix = "quiz_images/"

// NewKey builds quiz_images/<32 hex chars><ext> from 16 bytes of r.
func NewKey(r io.Reader, mediaType string) (string, error) {
	var b [16]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return keyPrefix + hex.EncodeToString(b[:]) + extensionFor(mediaType), nil
}

// extensionFor returns the conventional extension for a media type, or "" when unknown.
func extensionFor(mediaType string) string {
	base, _, _ := strings.Cut(mediaType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if m := mimetype.Lookup(base); m != nil {
		return m.Extension()
	}
	return ""
}
