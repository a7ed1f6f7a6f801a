package repository

import (
	"context"
	"slices"
	"sync"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/google/uuid"
)

// GenerationRepository holds draft question batches until they are saved or discarded.
type GenerationRepository struct {
	mu      sync.Mutex
	batches map[uuid.UUID]model.GenerationBatch
}

// NewGenerationRepository creates an empty GenerationRepository.
func NewGenerationRepository() *GenerationRepository {
	return &GenerationRepository{batches: make(map[uuid.UUID]model.GenerationBatch)}
}

// Save stores or replaces a batch.
func (r *GenerationRepository) Save(ctx context.Context, b *model.GenerationBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.batches[b.ID] = cloneBatch(*b)
	return nil
}

// Get retrieves a batch.
func (r *GenerationRepository) Get(ctx context.Context, id uuid.UUID) (*model.GenerationBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneBatch(b)
	return &cp, nil
}

// Update applies fn to a batch under the store lock and returns the result.
// The batch is left untouched when fn fails.
func (r *GenerationRepository) Update(ctx context.Context, id uuid.UUID, fn func(*model.GenerationBatch) error) (*model.GenerationBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneBatch(b)
	if err := fn(&cp); err != nil {
		return nil, err
	}
	r.batches[id] = cloneBatch(cp)
	return &cp, nil
}

// Take removes and returns a batch so it can be saved exactly once.
func (r *GenerationRepository) Take(ctx context.Context, id uuid.UUID) (*model.GenerationBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.batches[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(r.batches, id)
	return &b, nil
}

// Delete removes a batch.
func (r *GenerationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.Take(ctx, id)
	return err
}

func cloneBatch(b model.GenerationBatch) model.GenerationBatch {
	qs := make([]model.GeneratedQuestion, len(b.Questions))
	for i, q := range b.Questions {
		q.Options = slices.Clone(q.Options)
		qs[i] = q
	}
	b.Questions = qs
	return b
}
