// Package storage defines the interfaces for a blob storage provider.
// This abstraction allows the application to be independent of a specific
// storage implementation (e.g., Google Cloud Storage or the local
// filesystem). Every piece of persistent state in the service lives
// behind it: cached HTML pages, the completion ledger, and the encrypted
// account file.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for keys that have no stored object.
// Callers treat it as expected absence, not a failure.
var ErrNotFound = errors.New("object not found")

// ObjectInfo describes a stored object for listing.
type ObjectInfo struct {
	Name         string
	LastModified time.Time
}

// Provider defines the common interface for a blob storage provider.
type Provider interface {
	// Get retrieves an object's content, or ErrNotFound.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put uploads data to a key, overwriting any existing object.
	Put(ctx context.Context, name string, data []byte) error
	// List enumerates the stored objects with their last-modified times.
	List(ctx context.Context) ([]ObjectInfo, error)
	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, name string) error
}
