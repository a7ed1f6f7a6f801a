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
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrExamNotFound    = errors.New("exam not found")
	ErrNoQuestions     = errors.New("exam has no questions")
	ErrInvalidQuestion = errors.New("invalid question")
)

// FieldError reports an invalid question field. It matches ErrInvalidQuestion.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidQuestion
}

// ExamService handles the exam catalogue.
type ExamService struct {
	examRepo *repository.ExamRepository
	log      zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(examRepo *repository.ExamRepository, log zerolog.Logger) *ExamService {
	return &ExamService{
		examRepo: examRepo,
		log:      log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam with its questions.
func (s *ExamService) GetByID(ctx context.Context, id int) (*model.Exam, error) {
	exam, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}
	return exam, nil
}

// List returns one page of exam summaries, newest id last.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.ExamSummary, *response.Pagination, error) {
	exams, err := s.examRepo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list exams: %w", err)
	}

	summaries := make([]model.ExamSummary, len(exams))
	for i, e := range exams {
		summaries[i] = e.Summary()
	}

	items, pagination := response.Paginate(summaries, page, perPage)
	return items, pagination, nil
}

// Create validates and stores a new exam. Questions are numbered from 1 in
// the order given.
func (s *ExamService) Create(ctx context.Context, req *model.CreateExamRequest) (*model.Exam, error) {
	if len(req.Questions) == 0 {
		return nil, ErrNoQuestions
	}

	kind := model.ExamKind(req.Kind)
	questions := make([]model.Question, len(req.Questions))
	for i, qr := range req.Questions {
		q := model.Question{
			ID:               i + 1,
			Text:             strings.TrimSpace(qr.Text),
			Kind:             model.QuestionKind(qr.Kind),
			Options:          slices.Clone(qr.Options),
			AllowsAttachment: qr.AllowsAttachment,
		}
		if err := validateExamQuestion(kind, q); err != nil {
			err.Field = fmt.Sprintf("questions[%d].%s", i, err.Field)
			return nil, err
		}
		questions[i] = q
	}

	createdBy := model.AuthorTeacher
	if req.CreatedBy != "" {
		createdBy = model.Author(req.CreatedBy)
	}

	exam := &model.Exam{
		Title:           strings.TrimSpace(req.Title),
		Subjects:        slices.Clone(req.Subjects),
		Kind:            kind,
		DurationMinutes: req.DurationMinutes,
		CreatedBy:       createdBy,
		Questions:       questions,
	}
	if err := s.examRepo.Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("create exam: %w", err)
	}

	s.log.Info().
		Int("exam_id", exam.ID).
		Int("questions", len(exam.Questions)).
		Msg("Exam created")
	return exam, nil
}

// Delete removes an exam from the catalogue. Attempts already started keep
// their own copy of the questions.
func (s *ExamService) Delete(ctx context.Context, id int) error {
	if err := s.examRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrExamNotFound
		}
		return fmt.Errorf("delete exam: %w", err)
	}
	s.log.Info().Int("exam_id", id).Msg("Exam deleted")
	return nil
}

func validateExamQuestion(examKind model.ExamKind, q model.Question) *FieldError {
	if q.Text == "" {
		return &FieldError{Field: "text", Reason: "must not be blank"}
	}
	if examKind != model.ExamKindMixed && string(q.Kind) != string(examKind) {
		return &FieldError{Field: "kind", Reason: fmt.Sprintf("must be %s in a %s exam", examKind, examKind)}
	}
	return validateOptions(q.Kind, q.Options, q.AllowsAttachment)
}

// validateOptions checks the option list against the question kind.
func validateOptions(kind model.QuestionKind, options []string, allowsAttachment bool) *FieldError {
	switch kind {
	case model.QuestionKindMultipleChoice:
		if len(options) < 2 {
			return &FieldError{Field: "options", Reason: "multiple-choice questions need at least 2 options"}
		}
		seen := make(map[string]struct{}, len(options))
		for _, o := range options {
			if _, dup := seen[o]; dup {
				return &FieldError{Field: "options", Reason: fmt.Sprintf("duplicate option %q", o)}
			}
			seen[o] = struct{}{}
		}
		if allowsAttachment {
			return &FieldError{Field: "allows_attachment", Reason: "only free-response questions accept attachments"}
		}
	case model.QuestionKindFreeResponse:
		if len(options) > 0 {
			return &FieldError{Field: "options", Reason: "free-response questions have no options"}
		}
	}
	return nil
}
