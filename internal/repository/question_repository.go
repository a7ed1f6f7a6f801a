package repository

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/exammaker/exammaker-backend/internal/model"
)

// QuestionRepository holds the question bank.
type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[int]model.BankQuestion
	nextID    int
}

// NewQuestionRepository creates a QuestionRepository seeded with questions.
func NewQuestionRepository(seed []model.BankQuestion) *QuestionRepository {
	r := &QuestionRepository{questions: make(map[int]model.BankQuestion, len(seed)), nextID: 1}
	now := time.Now().UTC()
	for _, q := range seed {
		if q.CreatedAt.IsZero() {
			q.CreatedAt = now
		}
		q.Options = slices.Clone(q.Options)
		r.questions[q.ID] = q
		if q.ID >= r.nextID {
			r.nextID = q.ID + 1
		}
	}
	return r
}

// List returns questions matching filter, ordered by id. Search and Topic
// match substrings; Kind and Difficulty match exactly.
func (r *QuestionRepository) List(ctx context.Context, filter model.BankQuestionFilter) ([]model.BankQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.BankQuestion
	for _, q := range r.questions {
		if filter.Search != "" && !strings.Contains(q.Text, filter.Search) {
			continue
		}
		if filter.Kind != "" && string(q.Kind) != filter.Kind {
			continue
		}
		if filter.Topic != "" && !strings.Contains(q.Topic, filter.Topic) {
			continue
		}
		if filter.Difficulty != "" && string(q.Difficulty) != filter.Difficulty {
			continue
		}
		q.Options = slices.Clone(q.Options)
		out = append(out, q)
	}
	slices.SortFunc(out, func(a, b model.BankQuestion) int { return a.ID - b.ID })
	return out, nil
}

// GetByID retrieves a bank question.
func (r *QuestionRepository) GetByID(ctx context.Context, id int) (*model.BankQuestion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, ErrNotFound
	}
	q.Options = slices.Clone(q.Options)
	return &q, nil
}

// Create inserts a question, assigning its id.
func (r *QuestionRepository) Create(ctx context.Context, q *model.BankQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertLocked(q)
	return nil
}

// CreateMany inserts questions atomically, assigning ids in order.
func (r *QuestionRepository) CreateMany(ctx context.Context, qs []model.BankQuestion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range qs {
		r.insertLocked(&qs[i])
	}
	return nil
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.questions[id]; !ok {
		return ErrNotFound
	}
	delete(r.questions, id)
	return nil
}

// CountByTopic returns the number of questions per topic title.
func (r *QuestionRepository) CountByTopic(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, q := range r.questions {
		counts[q.Topic]++
	}
	return counts, nil
}

func (r *QuestionRepository) insertLocked(q *model.BankQuestion) {
	q.ID = r.nextID
	r.nextID++
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}
	stored := *q
	stored.Options = slices.Clone(q.Options)
	r.questions[q.ID] = stored
}
