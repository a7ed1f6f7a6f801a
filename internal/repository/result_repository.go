package repository

import (
	"context"
	"sync"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/google/uuid"
)

// ResultRepository keeps the submission records rendered by the result view.
type ResultRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]model.SubmissionRecord
}

// NewResultRepository creates an empty ResultRepository.
func NewResultRepository() *ResultRepository {
	return &ResultRepository{records: make(map[uuid.UUID]model.SubmissionRecord)}
}

// Save stores a record. A second record for the same attempt is ignored, so
// redelivery from the queue is harmless.
func (r *ResultRepository) Save(ctx context.Context, rec *model.SubmissionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[rec.AttemptID]; exists {
		return nil
	}
	r.records[rec.AttemptID] = *rec
	return nil
}

// Get retrieves the record of an attempt.
func (r *ResultRepository) Get(ctx context.Context, attemptID uuid.UUID) (*model.SubmissionRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[attemptID]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

