// Package store defines the repository interface for exporting a dependency
// graph to an external graph database for interactive exploration.
package store

import (
	"context"

	"girder/internal/graph"
)

// Repository persists a module graph and answers neighborhood queries.
type Repository interface {
	// StoreGraph writes all modules and edges. Modules and edges are
	// merged by id, so storing the same graph twice is idempotent.
	StoreGraph(ctx context.Context, g *graph.Graph) error

	// Dependents returns the ids of modules that depend on the given
	// module.
	Dependents(ctx context.Context, id string) ([]string, error)

	// Dependencies returns the ids of modules the given module depends
	// on.
	Dependencies(ctx context.Context, id string) ([]string, error)

	// Ping verifies connectivity to the backing store.
	Ping(ctx context.Context) error

	Close(ctx context.Context) error
}
