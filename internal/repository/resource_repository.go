package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/exammaker/exammaker-backend/internal/model"
)

// ResourceRepository holds study resources.
type ResourceRepository struct {
	mu        sync.RWMutex
	resources map[int]model.Resource
	nextID    int
}

// NewResourceRepository creates a ResourceRepository seeded with resources.
func NewResourceRepository(seed []model.Resource) *ResourceRepository {
	r := &ResourceRepository{resources: make(map[int]model.Resource, len(seed)), nextID: 1}
	now := time.Now().UTC()
	for _, res := range seed {
		if res.CreatedAt.IsZero() {
			res.CreatedAt = now
		}
		r.resources[res.ID] = res
		if res.ID >= r.nextID {
			r.nextID = res.ID + 1
		}
	}
	return r
}

// List returns resources matching filter, ordered by id.
func (r *ResourceRepository) List(ctx context.Context, filter model.ResourceFilter) ([]model.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Resource
	for _, res := range r.resources {
		if filter.Kind != "" && string(res.Kind) != filter.Kind {
			continue
		}
		if filter.Topic != "" && res.Topic != filter.Topic {
			continue
		}
		out = append(out, res)
	}
	slices.SortFunc(out, func(a, b model.Resource) int { return a.ID - b.ID })
	return out, nil
}

// Create inserts a resource.
func (r *ResourceRepository) Create(ctx context.Context, res *model.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	res.ID = r.nextID
	r.nextID++
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	r.resources[res.ID] = *res
	return nil
}

// Delete removes a resource.
func (r *ResourceRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.resources[id]; !ok {
		return ErrNotFound
	}
	delete(r.resources, id)
	return nil
}
