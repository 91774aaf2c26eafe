package objstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when an object does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
var ErrNotFound = os.ErrNotExist

// Store reads and writes whole objects.
type Store interface {
	// Put writes an object atomically, replacing any existing object.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads a whole object.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all objects under prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
