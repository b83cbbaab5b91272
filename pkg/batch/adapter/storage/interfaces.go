// Package storage defines the common interfaces for storage adapters.
// The extraction reads partitions and metadata and writes staging files through these
// interfaces, so the archive root can be swapped for another backend.
package storage

import (
	"context"
	"errors"
	"io"

	coreAdapter "github.com/tigerroll/midas-extract/pkg/batch/core/adapter"
)

// ErrReadOnly is returned by mutating operations on a read-only connection.
var ErrReadOnly = errors.New("storage connection is read-only")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	// Name is the object name relative to the connection root.
	Name string
	// Path is the backend location (an absolute file path for the local adapter).
	Path string
	Size int64
}

// StorageExecutor defines generic storage operations.
type StorageExecutor interface {
	// Upload writes data to the specified bucket and object name, replacing any existing object.
	Upload(ctx context.Context, bucket, objectName string, data io.Reader, contentType string) error
	// Create opens a writer for the object. The object is complete once the writer is closed.
	Create(ctx context.Context, bucket, objectName string) (io.WriteCloser, error)
	// Download opens the object for reading. The caller must close the returned reader.
	Download(ctx context.Context, bucket, objectName string) (io.ReadCloser, error)
	// ListObjects calls fn for each object under bucket whose name starts with prefix,
	// in lexical order.
	ListObjects(ctx context.Context, bucket, prefix string, fn func(objectName string) error) error
	// DeleteObject deletes the object. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, objectName string) error
	// Stat returns size and location of the object.
	Stat(ctx context.Context, bucket, objectName string) (ObjectInfo, error)
}

// StorageConnection represents a storage root.
type StorageConnection interface {
	coreAdapter.ResourceConnection // Close(), Type(), Name()
	StorageExecutor
}

// StorageProvider manages the acquisition and lifecycle of storage connections of one type.
type StorageProvider interface {
	// GetConnection retrieves the connection with the specified name, creating it on first use.
	GetConnection(name string) (StorageConnection, error)
	// CloseAll closes all connections managed by this provider.
	CloseAll() error
	// Type returns the storage type handled by this provider (e.g., "local").
	Type() string
}

// StorageConnectionResolver resolves named storage connections across providers.
type StorageConnectionResolver interface {
	coreAdapter.ResourceConnectionResolver

	// ResolveStorageConnection resolves a StorageConnection by name.
	ResolveStorageConnection(ctx context.Context, name string) (StorageConnection, error)
}

// Well-known connection names.
const (
	ConnectionData     = "data"
	ConnectionMetadata = "metadata"
	ConnectionStaging  = "staging"
)
