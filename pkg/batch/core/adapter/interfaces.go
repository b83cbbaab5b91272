// Package adapter defines the resource abstractions shared by storage adapters.
package adapter

import (
	"context"
)

// ResourceConnection represents a generic connection to a resource such as a storage root.
type ResourceConnection interface {
	// Close closes the resource connection.
	Close() error
	// Type returns the type of the resource (e.g., "local").
	Type() string
	// Name returns the connection name (e.g., "data", "metadata", "staging").
	Name() string
}

// ResourceConnectionResolver resolves a resource connection instance by name.
type ResourceConnectionResolver interface {
	// ResolveConnection resolves a resource connection instance by name.
	ResolveConnection(ctx context.Context, name string) (ResourceConnection, error)
}
