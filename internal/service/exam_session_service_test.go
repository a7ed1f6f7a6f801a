package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/exammaker/exammaker-backend/internal/examsession"
	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTicker struct{ ch chan time.Time }

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

// fakeClock hands every timer the same unbuffered channel so a test can
// drive one attempt at a time.
type fakeClock struct{ ticker *fakeTicker }

func newFakeClock() *fakeClock {
	return &fakeClock{ticker: &fakeTicker{ch: make(chan time.Time)}}
}

func (c *fakeClock) NewTicker(time.Duration) examsession.Ticker { return c.ticker }

func (c *fakeClock) tick(t *testing.T) {
	t.Helper()
	select {
	case c.ticker.ch <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("no timer consumed the tick")
	}
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, *model.SubmissionRecord) error {
	return errors.New("broker down")
}

func testExams() []model.Exam {
	return []model.Exam{
		{
			ID:              1,
			Title:           "Algebra",
			Kind:            model.ExamKindMixed,
			DurationMinutes: 1,
			Questions: []model.Question{
				{ID: 1, Text: "2+2?", Kind: model.QuestionKindMultipleChoice, Options: []string{"3", "4"}},
				{ID: 2, Text: "Prove it.", Kind: model.QuestionKindFreeResponse, AllowsAttachment: true},
				{ID: 3, Text: "Explain.", Kind: model.QuestionKindFreeResponse},
			},
		},
	}
}

type sessionFixture struct {
	svc     *ExamSessionService
	results *repository.ResultRepository
	clock   *fakeClock
}

func newSessionFixture(t *testing.T, publisher func(*repository.ResultRepository) SnapshotPublisher) *sessionFixture {
	t.Helper()
	results := repository.NewResultRepository()
	clock := newFakeClock()
	svc := NewExamSessionService(
		repository.NewExamRepository(testExams()),
		results,
		publisher(results),
		time.Second,
		clock,
		zerolog.Nop(),
	)
	t.Cleanup(svc.Shutdown)
	return &sessionFixture{svc: svc, results: results, clock: clock}
}

func localPublisher(r *repository.ResultRepository) SnapshotPublisher { return NewLocalPublisher(r) }

func TestStartAttempt(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, 99)
	assert.ErrorIs(t, err, ErrExamNotFound)

	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "Algebra", a.ExamTitle)
	assert.Equal(t, 60, a.State.RemainingSeconds)
	assert.Equal(t, "1:00", a.State.Clock)
	assert.Equal(t, 0, a.State.Cursor)
	assert.Equal(t, 33, a.State.Progress)
	assert.Equal(t, model.SessionStatusActive, a.State.Status)
	assert.Equal(t, 1, f.svc.ActiveCount())

	f.clock.tick(t)
	require.Eventually(t, func() bool {
		st, err := f.svc.State(ctx, a.ID)
		return err == nil && st.RemainingSeconds == 59
	}, time.Second, time.Millisecond)
}

func TestAnswerValidation(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.RecordAnswer(ctx, a.ID, 1, "5")
	assert.ErrorIs(t, err, ErrInvalidAnswer)

	_, err = f.svc.RecordAnswer(ctx, a.ID, 42, "x")
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	st, err := f.svc.RecordAnswer(ctx, a.ID, 1, "4")
	require.NoError(t, err)
	assert.Equal(t, 1, st.Answered)

	st, err = f.svc.RecordAnswer(ctx, a.ID, 3, "free text, anything goes")
	require.NoError(t, err)
	assert.Equal(t, 2, st.Answered)

	_, err = f.svc.RecordAnswer(ctx, uuid.New(), 1, "4")
	assert.ErrorIs(t, err, ErrAttemptNotFound)
}

func TestAttachmentValidation(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	ref := &model.FileRef{Name: "proof.pdf", ContentType: "application/pdf", Size: 1024}

	_, err = f.svc.AttachFile(ctx, a.ID, 1, ref)
	assert.ErrorIs(t, err, ErrAttachmentNotAllowed)
	_, err = f.svc.AttachFile(ctx, a.ID, 3, ref)
	assert.ErrorIs(t, err, ErrAttachmentNotAllowed)
	_, err = f.svc.AttachFile(ctx, a.ID, 7, ref)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = f.svc.AttachFile(ctx, a.ID, 2, ref)
	require.NoError(t, err)
	_, err = f.svc.AttachFile(ctx, a.ID, 2, nil)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, a.ID)
	require.NoError(t, err)

	rec, err := f.svc.Result(ctx, a.ID)
	require.NoError(t, err)
	assert.Contains(t, rec.Snapshot.Attachments, 2)
	assert.Nil(t, rec.Snapshot.Attachments[2])
}

func TestNavigation(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	st, err := f.svc.Previous(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Cursor)

	for range 5 {
		st, err = f.svc.Next(ctx, a.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, st.Cursor)
	assert.Equal(t, 100, st.Progress)
	assert.Equal(t, 3, st.Question.ID)

	st, err = f.svc.Previous(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Cursor)
}

func TestManualSubmitPublishesOnce(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.Result(ctx, a.ID)
	assert.ErrorIs(t, err, ErrResultNotReady)

	_, err = f.svc.RecordAnswer(ctx, a.ID, 1, "4")
	require.NoError(t, err)

	st, err := f.svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusSubmitted, st.Status)

	st, err = f.svc.Submit(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusSubmitted, st.Status)

	// Mutations after submission are ignored, not rejected.
	_, err = f.svc.RecordAnswer(ctx, a.ID, 1, "3")
	require.NoError(t, err)

	stored, err := f.results.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitReasonManual, stored.Snapshot.Reason)
	assert.Equal(t, map[int]string{1: "4"}, stored.Snapshot.Answers)
	assert.Equal(t, 1, stored.ExamID)
	assert.Equal(t, "Algebra", stored.ExamTitle)
}

func TestExpiryViaTimer(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	for range 60 {
		f.clock.tick(t)
	}

	require.Eventually(t, func() bool {
		_, err := f.results.Get(ctx, a.ID)
		return err == nil
	}, time.Second, time.Millisecond)

	rec, err := f.svc.Result(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SubmitReasonExpired, rec.Snapshot.Reason)
	assert.Equal(t, 0, rec.Snapshot.RemainingSeconds)
}

func TestPublisherFailureFallsBackToResultStore(t *testing.T) {
	f := newSessionFixture(t, func(*repository.ResultRepository) SnapshotPublisher { return failingPublisher{} })
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, a.ID)
	require.NoError(t, err)

	_, err = f.results.Get(ctx, a.ID)
	assert.NoError(t, err)
}

func TestSubscribeAndDiscard(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	updates, unsubscribe, err := f.svc.Subscribe(ctx, a.ID)
	require.NoError(t, err)
	defer unsubscribe()

	_, err = f.svc.Next(ctx, a.ID)
	require.NoError(t, err)

	select {
	case st := <-updates:
		assert.Equal(t, 1, st.Cursor)
	case <-time.After(time.Second):
		t.Fatal("no state update")
	}

	f.svc.Discard(ctx, a.ID)
	f.svc.Discard(ctx, a.ID)

	_, ok := <-updates
	assert.False(t, ok, "discard closes subscriber channels")

	_, err = f.svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
	_, _, err = f.svc.Subscribe(ctx, a.ID)
	assert.ErrorIs(t, err, ErrAttemptNotFound)
	assert.Equal(t, 0, f.svc.ActiveCount())

	// Discarding an active attempt does not submit it.
	_, err = f.results.Get(ctx, a.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSlowSubscriberDoesNotBlockSession(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	_, unsubscribe, err := f.svc.Subscribe(ctx, a.ID)
	require.NoError(t, err)
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range subscriberBuffer * 3 {
			_, _ = f.svc.RecordAnswer(ctx, a.ID, 3, string(rune('a'+i%26)))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session blocked on a slow subscriber")
	}
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	updates, unsubscribe, err := f.svc.Subscribe(ctx, a.ID)
	require.NoError(t, err)
	unsubscribe()
	unsubscribe()
	f.svc.Discard(ctx, a.ID)

	_, ok := <-updates
	assert.False(t, ok)
}

func TestShutdownReleasesTimers(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()
	a, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)

	f.svc.Shutdown()

	select {
	case f.clock.ticker.ch <- time.Now():
		t.Fatal("timer still running after shutdown")
	case <-time.After(50 * time.Millisecond):
	}

	st, err := f.svc.State(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusActive, st.Status)

	_, err = f.svc.Start(ctx, 1)
	assert.Error(t, err)
}

func TestListByExam(t *testing.T) {
	f := newSessionFixture(t, localPublisher)
	ctx := context.Background()

	assert.Empty(t, f.svc.ListByExam(ctx, 1))

	first, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	second, err := f.svc.Start(ctx, 1)
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, second.ID)
	require.NoError(t, err)

	attempts := f.svc.ListByExam(ctx, 1)
	require.Len(t, attempts, 2)
	ids := []uuid.UUID{attempts[0].ID, attempts[1].ID}
	assert.ElementsMatch(t, []uuid.UUID{first.ID, second.ID}, ids)
	for _, a := range attempts {
		if a.ID == second.ID {
			assert.Equal(t, model.SessionStatusSubmitted, a.State.Status)
		}
	}
	assert.Empty(t, f.svc.ListByExam(ctx, 99))
}
