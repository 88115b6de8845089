package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iconidentify/mediagate/internal/domain"
)

// InMemoryAllocationRepository implements AllocationRepository using in-memory storage.
// It does not survive restarts; use the SQLite repository when crash recovery matters.
type InMemoryAllocationRepository struct {
	mu     sync.RWMutex
	allocs map[domain.ArtifactID]domain.Allocation
}

// NewInMemoryAllocationRepository creates a new in-memory allocation repository.
func NewInMemoryAllocationRepository() *InMemoryAllocationRepository {
	return &InMemoryAllocationRepository{
		allocs: make(map[domain.ArtifactID]domain.Allocation),
	}
}

// Record stores a new allocation.
func (r *InMemoryAllocationRepository) Record(ctx context.Context, alloc domain.Allocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.allocs[alloc.ID] = alloc
	return nil
}

// Remove deletes an allocation.
func (r *InMemoryAllocationRepository) Remove(ctx context.Context, id domain.ArtifactID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.allocs, id)
	return nil
}

// List returns allocations created before the given time, oldest first.
func (r *InMemoryAllocationRepository) List(ctx context.Context, before time.Time) ([]domain.Allocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Allocation, 0, len(r.allocs))
	for _, a := range r.allocs {
		if before.IsZero() || a.CreatedAt.Before(before) {
			result = append(result, a)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Count returns the number of journaled allocations.
func (r *InMemoryAllocationRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.allocs), nil
}

// Close is a no-op.
func (r *InMemoryAllocationRepository) Close() error {
	return nil
}
