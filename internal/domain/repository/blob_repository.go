package repository

import (
	"context"
)

// StoredObject is one listed object-store entry.
type StoredObject struct {
	Key       string
	SizeBytes int64
}

// BlobRepository abstracts the object store holding raw and optimized
// artifacts. Keys are plain basenames under the store's artifact prefix.
type BlobRepository interface {
	// Get downloads an object in full; a miss is reported via the ok flag,
	// not an error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Put writes an object, overwriting any previous version.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Exists checks for an object without downloading it.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes an object; deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all stored artifacts under the artifact prefix.
	List(ctx context.Context) ([]StoredObject, error)
}

// SourceRepository resolves a layer id to its stored source bytes by
// probing the fixed filename variant order.
type SourceRepository interface {
	// FetchSource returns the first fully-downloaded variant for the layer,
	// or ErrSourceNotFound when every variant misses.
	FetchSource(ctx context.Context, layerID string) (data []byte, key string, err error)

	// DeleteAllVariants removes every stored variant of the layer and
	// reports whether any existed.
	DeleteAllVariants(ctx context.Context, layerID string) (bool, error)
}
