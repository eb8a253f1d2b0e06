package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Read when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Storage is the blob store backing uploaded media.
type Storage interface {
	// Write stores content from the reader with the given key.
	// size is the expected content length (-1 if unknown).
	Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for the given key. The caller closes it.
	Read(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the content with the given key. Deleting a missing
	// key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists checks if content with the given key exists.
	Exists(ctx context.Context, key string) (bool, error)
}
