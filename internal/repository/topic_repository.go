package repository

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/exammaker/exammaker-backend/internal/model"
)

// ErrDuplicateTitle is returned when a topic title is already taken.
var ErrDuplicateTitle = errors.New("title already exists")

// TopicRepository holds topics.
type TopicRepository struct {
	mu     sync.RWMutex
	topics map[int]model.Topic
	nextID int
}

// NewTopicRepository creates a TopicRepository seeded with topics.
func NewTopicRepository(seed []model.Topic) *TopicRepository {
	r := &TopicRepository{topics: make(map[int]model.Topic, len(seed)), nextID: 1}
	for _, t := range seed {
		r.topics[t.ID] = t
		if t.ID >= r.nextID {
			r.nextID = t.ID + 1
		}
	}
	return r
}

// List returns topics whose title contains search, ordered by id.
func (r *TopicRepository) List(ctx context.Context, search string) ([]model.Topic, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Topic
	for _, t := range r.topics {
		if search != "" && !strings.Contains(t.Title, search) {
			continue
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b model.Topic) int { return a.ID - b.ID })
	return out, nil
}

// Create inserts a topic.
func (r *TopicRepository) Create(ctx context.Context, t *model.Topic) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.titleTakenLocked(t.Title, 0) {
		return ErrDuplicateTitle
	}
	t.ID = r.nextID
	r.nextID++
	r.topics[t.ID] = *t
	return nil
}

// Rename changes a topic title.
func (r *TopicRepository) Rename(ctx context.Context, id int, title string) (*model.Topic, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.topics[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.titleTakenLocked(title, id) {
		return nil, ErrDuplicateTitle
	}
	t.Title = title
	r.topics[id] = t
	return &t, nil
}

// Delete removes a topic.
func (r *TopicRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.topics[id]; !ok {
		return ErrNotFound
	}
	delete(r.topics, id)
	return nil
}

func (r *TopicRepository) titleTakenLocked(title string, except int) bool {
	for id, t := range r.topics {
		if id != except && strings.EqualFold(t.Title, title) {
			return true
		}
	}
	return false
}
