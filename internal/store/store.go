// Package store persists analysis artifacts to a local directory or to
// Azure Blob Storage.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ContentTypeJSON is the content type of every JSON artifact.
const ContentTypeJSON = "application/json"

var (
	// ErrEmptyKey indicates an empty storage key was provided.
	ErrEmptyKey = errors.New("storage key must not be empty")
	// ErrInvalidKey indicates the storage key contains a path traversal segment.
	ErrInvalidKey = errors.New("storage key contains invalid path segment")
)

// Sink receives named artifacts.
type Sink interface {
	// Put writes the contents of r under key, replacing any existing artifact.
	Put(ctx context.Context, key string, r io.Reader, contentType string) error

	// Location describes where key ends up, for logs and CLI output.
	Location(key string) string
}

// PutJSON encodes v as indented JSON and stores it under key.
func PutJSON(ctx context.Context, s Sink, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Put(ctx, key, bytes.NewReader(data), ContentTypeJSON)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return ErrInvalidKey
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}
