package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrBatchNotFound        = errors.New("generation batch not found")
	ErrDraftIndexOutOfRange = errors.New("draft question index out of range")
)

const (
	defaultTopic      = "General"
	allSourcesLabel   = "All sources"
	defaultSourceText = "Default source"
)

// GenerationService produces draft questions, lets them be reviewed and
// moves the reviewed drafts into the question bank.
type GenerationService struct {
	genRepo      *repository.GenerationRepository
	questionRepo *repository.QuestionRepository
	maxCount     int
	log          zerolog.Logger
}

// NewGenerationService creates a new GenerationService. maxCount caps the
// number of questions per batch.
func NewGenerationService(
	genRepo *repository.GenerationRepository,
	questionRepo *repository.QuestionRepository,
	maxCount int,
	log zerolog.Logger,
) *GenerationService {
	if maxCount < 1 {
		maxCount = 20
	}
	return &GenerationService{
		genRepo:      genRepo,
		questionRepo: questionRepo,
		maxCount:     maxCount,
		log:          log.With().Str("component", "generation_service").Logger(),
	}
}

// Generate creates a draft batch. The count is clamped to 1..maxCount and a
// mixed batch alternates multiple-choice (even index) and free-response.
func (s *GenerationService) Generate(ctx context.Context, req *model.GenerateQuestionsRequest) (*model.GenerationBatch, error) {
	count := min(max(req.Count, 1), s.maxCount)

	topic := defaultTopic
	if len(req.Topics) > 0 && strings.TrimSpace(req.Topics[0]) != "" {
		topic = strings.TrimSpace(req.Topics[0])
	}

	source := defaultSourceText
	switch {
	case req.AllSources:
		source = allSourcesLabel
	case len(req.Sources) > 0 && strings.TrimSpace(req.Sources[0]) != "":
		source = strings.TrimSpace(req.Sources[0])
	}

	batch := &model.GenerationBatch{
		ID:        uuid.New(),
		Questions: make([]model.GeneratedQuestion, count),
		CreatedAt: time.Now().UTC(),
	}
	for i := range count {
		kind := draftKind(model.GenerateKind(req.Kind), i)
		q := model.GeneratedQuestion{
			Text:       fmt.Sprintf("Sample question %d on %s", i+1, topic),
			Kind:       kind,
			Difficulty: model.Difficulty(req.Difficulty),
			Topic:      topic,
			Source:     source,
		}
		if kind == model.QuestionKindMultipleChoice {
			q.Options = []string{"Option A", "Option B", "Option C", "Option D"}
		}
		batch.Questions[i] = q
	}

	if err := s.genRepo.Save(ctx, batch); err != nil {
		return nil, fmt.Errorf("save batch: %w", err)
	}

	s.log.Info().
		Str("batch_id", batch.ID.String()).
		Int("count", count).
		Str("topic", topic).
		Msg("Draft questions generated")
	return batch, nil
}

// Get returns a draft batch.
func (s *GenerationService) Get(ctx context.Context, batchID uuid.UUID) (*model.GenerationBatch, error) {
	b, err := s.genRepo.Get(ctx, batchID)
	if err != nil {
		return nil, mapBatchErr(err)
	}
	return b, nil
}

// Edit replaces the text of one draft question.
func (s *GenerationService) Edit(ctx context.Context, batchID uuid.UUID, index int, text string) (*model.GenerationBatch, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &FieldError{Field: "text", Reason: "must not be blank"}
	}
	return s.update(ctx, batchID, index, func(b *model.GenerationBatch) {
		b.Questions[index].Text = text
	})
}

// Remove drops one draft question from a batch.
func (s *GenerationService) Remove(ctx context.Context, batchID uuid.UUID, index int) (*model.GenerationBatch, error) {
	return s.update(ctx, batchID, index, func(b *model.GenerationBatch) {
		b.Questions = append(b.Questions[:index], b.Questions[index+1:]...)
	})
}

// Discard drops a draft batch.
func (s *GenerationService) Discard(ctx context.Context, batchID uuid.UUID) error {
	if err := s.genRepo.Delete(ctx, batchID); err != nil {
		return mapBatchErr(err)
	}
	return nil
}

// Save moves every draft of a batch into the question bank and deletes the
// batch. A batch can be saved once.
func (s *GenerationService) Save(ctx context.Context, batchID uuid.UUID) ([]model.BankQuestion, error) {
	b, err := s.genRepo.Take(ctx, batchID)
	if err != nil {
		return nil, mapBatchErr(err)
	}

	questions := make([]model.BankQuestion, len(b.Questions))
	for i, d := range b.Questions {
		questions[i] = model.BankQuestion{
			Text:       d.Text,
			Kind:       d.Kind,
			Difficulty: d.Difficulty,
			Topic:      d.Topic,
			Source:     d.Source,
			Options:    d.Options,
		}
	}

	if err := s.questionRepo.CreateMany(ctx, questions); err != nil {
		return nil, fmt.Errorf("store questions: %w", err)
	}

	s.log.Info().
		Str("batch_id", batchID.String()).
		Int("count", len(questions)).
		Msg("Draft questions saved to bank")
	return questions, nil
}

func (s *GenerationService) update(ctx context.Context, batchID uuid.UUID, index int, fn func(*model.GenerationBatch)) (*model.GenerationBatch, error) {
	b, err := s.genRepo.Update(ctx, batchID, func(b *model.GenerationBatch) error {
		if index < 0 || index >= len(b.Questions) {
			return ErrDraftIndexOutOfRange
		}
		fn(b)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDraftIndexOutOfRange) {
			return nil, err
		}
		return nil, mapBatchErr(err)
	}
	return b, nil
}

func draftKind(kind model.GenerateKind, index int) model.QuestionKind {
	switch kind {
	case model.GenerateKindMultipleChoice:
		return model.QuestionKindMultipleChoice
	case model.GenerateKindFreeResponse:
		return model.QuestionKindFreeResponse
	default:
		if index%2 == 0 {
			return model.QuestionKindMultipleChoice
		}
		return model.QuestionKindFreeResponse
	}
}

func mapBatchErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrBatchNotFound
	}
	return fmt.Errorf("generation repository: %w", err)
}
