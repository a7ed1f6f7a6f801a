package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/exammaker/exammaker-backend/internal/response"
)

// ErrBankQuestionNotFound is returned for unknown question bank ids.
var ErrBankQuestionNotFound = errors.New("bank question not found")

// QuestionService handles the question bank.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// List retrieves bank questions matching filter with pagination.
func (s *QuestionService) List(ctx context.Context, filter model.BankQuestionFilter, page, perPage int) ([]model.BankQuestion, *response.Pagination, error) {
	questions, err := s.questionRepo.List(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("list questions: %w", err)
	}

	items, pagination := response.Paginate(questions, page, perPage)
	return items, pagination, nil
}

// GetByID retrieves a bank question.
func (s *QuestionService) GetByID(ctx context.Context, id int) (*model.BankQuestion, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBankQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// Add validates and stores a question. A multiple-choice correct answer must
// be one of the options.
func (s *QuestionService) Add(ctx context.Context, req *model.AddBankQuestionRequest) (*model.BankQuestion, error) {
	q := &model.BankQuestion{
		Text:          strings.TrimSpace(req.Text),
		Kind:          model.QuestionKind(req.Kind),
		Difficulty:    model.Difficulty(req.Difficulty),
		Topic:         strings.TrimSpace(req.Topic),
		Source:        strings.TrimSpace(req.Source),
		Options:       slices.Clone(req.Options),
		CorrectAnswer: req.CorrectAnswer,
	}

	if q.Text == "" {
		return nil, &FieldError{Field: "text", Reason: "must not be blank"}
	}
	if err := validateOptions(q.Kind, q.Options, false); err != nil {
		return nil, err
	}
	if q.Kind == model.QuestionKindMultipleChoice && q.CorrectAnswer != "" && !slices.Contains(q.Options, q.CorrectAnswer) {
		return nil, &FieldError{Field: "correct_answer", Reason: "must be one of the options"}
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Delete removes a bank question.
func (s *QuestionService) Delete(ctx context.Context, id int) error {
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrBankQuestionNotFound
		}
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}
