package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
)

// Domain Errors
var (
	ErrTopicNotFound  = errors.New("topic not found")
	ErrDuplicateTopic = errors.New("topic title already exists")
)

// TopicService handles topics.
type TopicService struct {
	topicRepo    *repository.TopicRepository
	questionRepo *repository.QuestionRepository
}

// NewTopicService creates a new TopicService.
func NewTopicService(topicRepo *repository.TopicRepository, questionRepo *repository.QuestionRepository) *TopicService {
	return &TopicService{topicRepo: topicRepo, questionRepo: questionRepo}
}

// List returns topics whose title contains search, each with the number of
// bank questions filed under it.
func (s *TopicService) List(ctx context.Context, search string) ([]model.Topic, error) {
	topics, err := s.topicRepo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	counts, err := s.questionRepo.CountByTopic(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}

	if topics == nil {
		topics = []model.Topic{}
	}
	for i := range topics {
		topics[i].QuestionCount = counts[topics[i].Title]
	}
	return topics, nil
}

// Create adds a topic. Titles are unique regardless of case.
func (s *TopicService) Create(ctx context.Context, title string) (*model.Topic, error) {
	t := &model.Topic{Title: strings.TrimSpace(title)}
	if t.Title == "" {
		return nil, &FieldError{Field: "title", Reason: "must not be blank"}
	}
	if err := s.topicRepo.Create(ctx, t); err != nil {
		return nil, mapTopicErr(err)
	}
	return t, nil
}

// Rename changes a topic title.
func (s *TopicService) Rename(ctx context.Context, id int, title string) (*model.Topic, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &FieldError{Field: "title", Reason: "must not be blank"}
	}

	t, err := s.topicRepo.Rename(ctx, id, title)
	if err != nil {
		return nil, mapTopicErr(err)
	}

	counts, err := s.questionRepo.CountByTopic(ctx)
	if err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	t.QuestionCount = counts[t.Title]
	return t, nil
}

// Delete removes a topic. Questions filed under it keep their topic text.
func (s *TopicService) Delete(ctx context.Context, id int) error {
	if err := s.topicRepo.Delete(ctx, id); err != nil {
		return mapTopicErr(err)
	}
	return nil
}

func mapTopicErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTopicNotFound
	case errors.Is(err, repository.ErrDuplicateTitle):
		return ErrDuplicateTopic
	default:
		return fmt.Errorf("topic repository: %w", err)
	}
}
