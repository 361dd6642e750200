package snapshot

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a named snapshot does not exist.
//
// Implementations must return an error satisfying
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("snapshot: not found")

// Store is an abstraction over snapshot storage. Snapshots are small
// relative to working sets and written whole, so the interface is
// byte-oriented rather than streaming.
type Store interface {
	// Put writes a snapshot atomically, replacing any existing one.
	Put(ctx context.Context, name string, data []byte) error

	// Get reads a snapshot.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes a snapshot. Deleting a missing snapshot is not an
	// error.
	Delete(ctx context.Context, name string) error

	// List returns the names of all snapshots with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
