package quizzes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Document is an arbitrary JSON object. Decoded documents hold numbers as
// json.Number, nested objects as map[string]any and arrays as []any.
type Document map[string]any

var errNotObject = errors.New("document is not a JSON object")

// DecodeDocument parses text that must contain exactly one JSON object.
func DecodeDocument(text string) (Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode document: trailing data")
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	return Document(obj), nil
}

// EncodeDocument renders doc as compact JSON. A nil document encodes as {}.
func EncodeDocument(doc Document) (string, error) {
	if doc == nil {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
