package repository

import (
	"context"
	"time"

	"github.com/iconidentify/mediagate/internal/domain"
)

// AllocationRepository journals in-flight temp artifact allocations so that
// files orphaned by a crash can be found and purged on the next start.
type AllocationRepository interface {
	// Record stores a new allocation.
	Record(ctx context.Context, alloc domain.Allocation) error

	// Remove deletes an allocation. Removing an unknown id is not an error.
	Remove(ctx context.Context, id domain.ArtifactID) error

	// List returns allocations created before the given time, oldest first.
	// A zero time returns every allocation.
	List(ctx context.Context, before time.Time) ([]domain.Allocation, error)

	// Count returns the number of journaled allocations.
	Count(ctx context.Context) (int, error)

	// Close releases any underlying resources.
	Close() error
}
