package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExamServiceCreate(t *testing.T) {
	svc := NewExamService(repository.NewExamRepository(testExams()), zerolog.Nop())
	ctx := context.Background()

	exam, err := svc.Create(ctx, &model.CreateExamRequest{
		Title:           "  Optics  ",
		Kind:            "mixed",
		DurationMinutes: 15,
		Questions: []model.ExamQuestionRequest{
			{Text: "Speed of light?", Kind: "multiple_choice", Options: []string{"3e8 m/s", "340 m/s"}},
			{Text: "Describe refraction.", Kind: "free_response", AllowsAttachment: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Optics", exam.Title)
	assert.Equal(t, model.AuthorTeacher, exam.CreatedBy)
	assert.Equal(t, 1, exam.Questions[0].ID)
	assert.Equal(t, 2, exam.Questions[1].ID)
	assert.Equal(t, 900, exam.Definition().DurationSeconds)

	got, err := svc.GetByID(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, exam.Title, got.Title)
}

func TestExamServiceCreateRejectsInvalidQuestions(t *testing.T) {
	svc := NewExamService(repository.NewExamRepository(nil), zerolog.Nop())
	ctx := context.Background()

	cases := []struct {
		name  string
		kind  string
		q     model.ExamQuestionRequest
		field string
	}{
		{"mc with one option", "mixed", model.ExamQuestionRequest{Text: "Q", Kind: "multiple_choice", Options: []string{"a"}}, "questions[0].options"},
		{"duplicate options", "mixed", model.ExamQuestionRequest{Text: "Q", Kind: "multiple_choice", Options: []string{"a", "a"}}, "questions[0].options"},
		{"fr with options", "mixed", model.ExamQuestionRequest{Text: "Q", Kind: "free_response", Options: []string{"a", "b"}}, "questions[0].options"},
		{"attachment on mc", "mixed", model.ExamQuestionRequest{Text: "Q", Kind: "multiple_choice", Options: []string{"a", "b"}, AllowsAttachment: true}, "questions[0].allows_attachment"},
		{"kind mismatch", "multiple_choice", model.ExamQuestionRequest{Text: "Q", Kind: "free_response"}, "questions[0].kind"},
		{"blank text", "mixed", model.ExamQuestionRequest{Text: "   ", Kind: "free_response"}, "questions[0].text"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &model.CreateExamRequest{
				Title: "Broken", Kind: tc.kind, DurationMinutes: 5,
				Questions: []model.ExamQuestionRequest{tc.q},
			})
			require.ErrorIs(t, err, ErrInvalidQuestion)
			var fe *FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tc.field, fe.Field)
		})
	}

	_, err := svc.Create(ctx, &model.CreateExamRequest{Title: "Empty", Kind: "mixed", DurationMinutes: 5})
	assert.ErrorIs(t, err, ErrNoQuestions)
}

func TestExamServiceListAndDelete(t *testing.T) {
	svc := NewExamService(repository.NewExamRepository(testExams()), zerolog.Nop())
	ctx := context.Background()

	items, p, err := svc.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].QuestionCount)
	assert.Equal(t, 1, p.TotalItems)

	require.NoError(t, svc.Delete(ctx, 1))
	assert.ErrorIs(t, svc.Delete(ctx, 1), ErrExamNotFound)
	_, err = svc.GetByID(ctx, 1)
	assert.ErrorIs(t, err, ErrExamNotFound)
}

func bankSeed() []model.BankQuestion {
	return []model.BankQuestion{
		{ID: 1, Text: "Newton's second law", Kind: model.QuestionKindFreeResponse, Difficulty: model.DifficultyMedium, Topic: "Physics"},
		{ID: 2, Text: "Pick the noble gas", Kind: model.QuestionKindMultipleChoice, Difficulty: model.DifficultyEasy, Topic: "Chemistry", Options: []string{"Ne", "Na"}},
	}
}

func TestQuestionService(t *testing.T) {
	svc := NewQuestionService(repository.NewQuestionRepository(bankSeed()))
	ctx := context.Background()

	items, p, err := svc.List(ctx, model.BankQuestionFilter{Topic: "Phys"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, p.TotalItems)

	_, err = svc.Add(ctx, &model.AddBankQuestionRequest{
		Text: "Pick one", Kind: "multiple_choice", Difficulty: "easy", Topic: "Chemistry",
		Options: []string{"a", "b"}, CorrectAnswer: "c",
	})
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "correct_answer", fe.Field)

	q, err := svc.Add(ctx, &model.AddBankQuestionRequest{
		Text: "Pick one", Kind: "multiple_choice", Difficulty: "easy", Topic: "Chemistry",
		Options: []string{"a", "b"}, CorrectAnswer: "b",
	})
	require.NoError(t, err)
	assert.NotZero(t, q.ID)
	assert.False(t, q.CreatedAt.IsZero())

	got, err := svc.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "b", got.CorrectAnswer)

	require.NoError(t, svc.Delete(ctx, q.ID))
	assert.ErrorIs(t, svc.Delete(ctx, q.ID), ErrBankQuestionNotFound)
	_, err = svc.GetByID(ctx, q.ID)
	assert.ErrorIs(t, err, ErrBankQuestionNotFound)
}

func TestTopicServiceCountsQuestions(t *testing.T) {
	questions := repository.NewQuestionRepository(bankSeed())
	svc := NewTopicService(repository.NewTopicRepository([]model.Topic{
		{ID: 1, Title: "Physics"},
		{ID: 2, Title: "Biology"},
	}), questions)
	ctx := context.Background()

	topics, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, 1, topics[0].QuestionCount)
	assert.Equal(t, 0, topics[1].QuestionCount)

	_, err = svc.Create(ctx, "physics")
	assert.ErrorIs(t, err, ErrDuplicateTopic)

	created, err := svc.Create(ctx, " Chemistry ")
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", created.Title)

	renamed, err := svc.Rename(ctx, 2, "Chemistry")
	assert.ErrorIs(t, err, ErrDuplicateTopic)
	assert.Nil(t, renamed)

	renamed, err = svc.Rename(ctx, created.ID, "Chemistry I")
	require.NoError(t, err)
	assert.Equal(t, 0, renamed.QuestionCount)

	_, err = svc.Rename(ctx, 404, "x")
	assert.ErrorIs(t, err, ErrTopicNotFound)

	require.NoError(t, svc.Delete(ctx, 2))
	assert.ErrorIs(t, svc.Delete(ctx, 2), ErrTopicNotFound)

	_, err = svc.Create(ctx, "  ")
	assert.ErrorIs(t, err, ErrInvalidQuestion)
}

func TestResourceService(t *testing.T) {
	svc := NewResourceService(repository.NewResourceRepository(nil))
	ctx := context.Background()

	res, err := svc.Create(ctx, &model.CreateResourceRequest{
		Title: "Lecture notes", Kind: "pdf", Topic: "Physics", URL: "https://example.org/notes.pdf",
	})
	require.NoError(t, err)

	list, err := svc.List(ctx, model.ResourceFilter{Kind: "pdf"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = svc.List(ctx, model.ResourceFilter{Kind: "image"})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	require.NoError(t, svc.Delete(ctx, res.ID))
	assert.ErrorIs(t, svc.Delete(ctx, res.ID), ErrResourceNotFound)
}

func TestGenerationLifecycle(t *testing.T) {
	questions := repository.NewQuestionRepository(nil)
	svc := NewGenerationService(repository.NewGenerationRepository(), questions, 20, zerolog.Nop())
	ctx := context.Background()

	batch, err := svc.Generate(ctx, &model.GenerateQuestionsRequest{
		Topics: []string{"Optics", "Waves"}, Sources: []string{"Textbook"},
		Count: 50, Kind: "mixed", Difficulty: "hard",
	})
	require.NoError(t, err)
	require.Len(t, batch.Questions, 20, "count is capped")
	assert.Equal(t, model.QuestionKindMultipleChoice, batch.Questions[0].Kind)
	assert.Equal(t, model.QuestionKindFreeResponse, batch.Questions[1].Kind)
	assert.Len(t, batch.Questions[0].Options, 4)
	assert.Empty(t, batch.Questions[1].Options)
	assert.Equal(t, "Sample question 1 on Optics", batch.Questions[0].Text)
	assert.Equal(t, "Textbook", batch.Questions[0].Source)
	assert.Equal(t, model.DifficultyHard, batch.Questions[0].Difficulty)

	edited, err := svc.Edit(ctx, batch.ID, 1, "  Explain diffraction.  ")
	require.NoError(t, err)
	assert.Equal(t, "Explain diffraction.", edited.Questions[1].Text)

	_, err = svc.Edit(ctx, batch.ID, 20, "x")
	assert.ErrorIs(t, err, ErrDraftIndexOutOfRange)
	_, err = svc.Edit(ctx, uuid.New(), 0, "x")
	assert.ErrorIs(t, err, ErrBatchNotFound)

	removed, err := svc.Remove(ctx, batch.ID, 0)
	require.NoError(t, err)
	require.Len(t, removed.Questions, 19)
	assert.Equal(t, "Explain diffraction.", removed.Questions[0].Text)

	saved, err := svc.Save(ctx, batch.ID)
	require.NoError(t, err)
	assert.Len(t, saved, 19)

	bank, err := questions.List(ctx, model.BankQuestionFilter{})
	require.NoError(t, err)
	assert.Len(t, bank, 19)

	_, err = svc.Save(ctx, batch.ID)
	assert.ErrorIs(t, err, ErrBatchNotFound)
}

func TestGenerationDefaults(t *testing.T) {
	svc := NewGenerationService(repository.NewGenerationRepository(), repository.NewQuestionRepository(nil), 0, zerolog.Nop())
	ctx := context.Background()

	batch, err := svc.Generate(ctx, &model.GenerateQuestionsRequest{Count: 2, Kind: "free_response", Difficulty: "easy"})
	require.NoError(t, err)
	assert.Equal(t, "General", batch.Questions[0].Topic)
	assert.Equal(t, "Default source", batch.Questions[0].Source)
	assert.Equal(t, model.QuestionKindFreeResponse, batch.Questions[0].Kind)
	assert.Equal(t, model.QuestionKindFreeResponse, batch.Questions[1].Kind)

	batch, err = svc.Generate(ctx, &model.GenerateQuestionsRequest{
		Sources: []string{"Textbook"}, AllSources: true, Count: 1, Kind: "multiple_choice", Difficulty: "easy",
	})
	require.NoError(t, err)
	assert.Equal(t, "All sources", batch.Questions[0].Source)

	require.NoError(t, svc.Discard(ctx, batch.ID))
	assert.ErrorIs(t, svc.Discard(ctx, batch.ID), ErrBatchNotFound)
}

func TestGenerationConcurrentEditsAndSave(t *testing.T) {
	genRepo := repository.NewGenerationRepository()
	questions := repository.NewQuestionRepository(nil)
	svc := NewGenerationService(genRepo, questions, 20, zerolog.Nop())
	ctx := context.Background()

	batch, err := svc.Generate(ctx, &model.GenerateQuestionsRequest{Count: 10, Kind: "free_response", Difficulty: "easy"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Edit(ctx, batch.ID, i, fmt.Sprintf("edit %d", i))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := svc.Get(ctx, batch.ID)
	require.NoError(t, err)
	for i, q := range got.Questions {
		assert.Equal(t, fmt.Sprintf("edit %d", i), q.Text, "no edit is lost")
	}

	// Edits racing a save either land before it or find the batch gone.
	errs := make(chan error, 50)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := svc.Save(ctx, batch.ID)
		assert.NoError(t, err)
	}()
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Edit(ctx, batch.ID, 0, "late")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrBatchNotFound)
		}
	}

	_, err = svc.Get(ctx, batch.ID)
	assert.ErrorIs(t, err, ErrBatchNotFound, "a saved batch stays gone")
	_, err = svc.Save(ctx, batch.ID)
	assert.ErrorIs(t, err, ErrBatchNotFound)

	bank, err := questions.List(ctx, model.BankQuestionFilter{})
	require.NoError(t, err)
	assert.Len(t, bank, 10)
}
