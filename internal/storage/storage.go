package storage

import "context"

// Store persists exported artifacts. Paths are slash separated and relative
// to the store root.
type Store interface {
	// Save writes data at path and returns where it ended up.
	Save(ctx context.Context, path string, data []byte, contentType string) (string, error)
	// List returns the paths stored under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
