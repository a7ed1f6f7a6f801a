package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/exammaker/exammaker-backend/internal/model"
)

// ExamRepository holds the exam catalogue.
type ExamRepository struct {
	mu     sync.RWMutex
	exams  map[int]model.Exam
	nextID int
}

// NewExamRepository creates an ExamRepository seeded with exams.
func NewExamRepository(seed []model.Exam) *ExamRepository {
	r := &ExamRepository{exams: make(map[int]model.Exam, len(seed)), nextID: 1}
	for _, e := range seed {
		r.exams[e.ID] = cloneExam(e)
		if e.ID >= r.nextID {
			r.nextID = e.ID + 1
		}
	}
	return r
}

// List returns all exams ordered by id.
func (r *ExamRepository) List(ctx context.Context) ([]model.Exam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exams := make([]model.Exam, 0, len(r.exams))
	for _, e := range r.exams {
		exams = append(exams, cloneExam(e))
	}
	slices.SortFunc(exams, func(a, b model.Exam) int { return a.ID - b.ID })
	return exams, nil
}

// GetByID retrieves an exam by id.
func (r *ExamRepository) GetByID(ctx context.Context, id int) (*model.Exam, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.exams[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneExam(e)
	return &cp, nil
}

// Create inserts an exam, assigning its id and creation time.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.ID = r.nextID
	r.nextID++
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r.exams[e.ID] = cloneExam(*e)
	return nil
}

// Delete removes an exam.
func (r *ExamRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.exams[id]; !ok {
		return ErrNotFound
	}
	delete(r.exams, id)
	return nil
}

func cloneExam(e model.Exam) model.Exam {
	e.Subjects = slices.Clone(e.Subjects)
	questions := make([]model.Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = slices.Clone(q.Options)
		questions[i] = q
	}
	e.Questions = questions
	return e
}
