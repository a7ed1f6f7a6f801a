package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/exammaker/exammaker-backend/internal/examsession"
	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrAttemptNotFound      = errors.New("attempt not found")
	ErrQuestionNotFound     = errors.New("question does not belong to the exam")
	ErrInvalidAnswer        = errors.New("answer is not one of the question's options")
	ErrAttachmentNotAllowed = errors.New("question does not accept attachments")
	ErrResultNotReady       = errors.New("attempt has not been submitted")
)

// subscriberBuffer is how many state updates a slow subscriber may lag
// behind before updates are dropped for it.
const subscriberBuffer = 16

// publishTimeout bounds the hand-off of a submitted snapshot.
const publishTimeout = 5 * time.Second

// attempt is a running exam session and everything attached to it.
type attempt struct {
	id        uuid.UUID
	examID    int
	examTitle string
	startedAt time.Time
	session   *examsession.Session

	cancel    context.CancelFunc
	timerDone chan struct{}

	subMu   sync.Mutex
	subs    map[int]chan model.SessionState
	nextSub int
	closed  bool
}

func (a *attempt) view() *model.Attempt {
	return &model.Attempt{
		ID:        a.id,
		ExamID:    a.examID,
		ExamTitle: a.examTitle,
		StartedAt: a.startedAt,
		State:     a.session.State(),
	}
}

// broadcast fans state out to subscribers without blocking the session.
func (a *attempt) broadcast(state model.SessionState) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	for _, ch := range a.subs {
		select {
		case ch <- state:
		default:
		}
	}
}

func (a *attempt) closeSubscribers() {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	for id, ch := range a.subs {
		close(ch)
		delete(a.subs, id)
	}
	a.closed = true
}

// ExamSessionService owns every running attempt: it starts sessions from the
// exam catalogue, drives their timers, validates input before forwarding it
// to the session and routes submitted snapshots to the publisher.
type ExamSessionService struct {
	examRepo   *repository.ExamRepository
	resultRepo *repository.ResultRepository
	publisher  SnapshotPublisher
	interval   time.Duration
	clock      examsession.Clock
	log        zerolog.Logger

	mu       sync.RWMutex
	attempts map[uuid.UUID]*attempt

	// ctx parents every timer so Shutdown can release them all.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewExamSessionService creates a new ExamSessionService. A nil clock means
// the system clock.
func NewExamSessionService(
	examRepo *repository.ExamRepository,
	resultRepo *repository.ResultRepository,
	publisher SnapshotPublisher,
	interval time.Duration,
	clock examsession.Clock,
	log zerolog.Logger,
) *ExamSessionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &ExamSessionService{
		examRepo:   examRepo,
		resultRepo: resultRepo,
		publisher:  publisher,
		interval:   interval,
		clock:      clock,
		log:        log.With().Str("component", "exam_session_service").Logger(),
		attempts:   make(map[uuid.UUID]*attempt),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start begins a new attempt of an exam and starts its countdown.
func (s *ExamSessionService) Start(ctx context.Context, examID int) (*model.Attempt, error) {
	if s.ctx.Err() != nil {
		return nil, errors.New("exam session service is shut down")
	}

	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("get exam: %w", err)
	}

	a := &attempt{
		id:        uuid.New(),
		examID:    exam.ID,
		examTitle: exam.Title,
		startedAt: time.Now().UTC(),
		timerDone: make(chan struct{}),
		subs:      make(map[int]chan model.SessionState),
	}
	log := s.log.With().
		Str("attempt_id", a.id.String()).
		Int("exam_id", exam.ID).
		Logger()

	session, err := examsession.New(exam.Definition(),
		examsession.WithLogger(log),
		examsession.WithChangeHandler(a.broadcast),
		examsession.WithSubmitHandler(func(snap model.Snapshot) {
			s.publish(a, snap, log)
		}),
	)
	if err != nil {
		if errors.Is(err, examsession.ErrNoQuestions) {
			return nil, ErrNoQuestions
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	a.session = session

	timerCtx, cancel := context.WithCancel(s.ctx)
	a.cancel = cancel

	s.mu.Lock()
	s.attempts[a.id] = a
	s.mu.Unlock()

	timer := examsession.NewTimer(session, s.interval, s.clock, log)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(a.timerDone)
		timer.Run(timerCtx)
	}()

	log.Info().
		Str("exam_title", exam.Title).
		Int("duration_seconds", exam.DurationMinutes*60).
		Msg("Attempt started")

	return a.view(), nil
}

// Get returns the attempt with its current state.
func (s *ExamSessionService) Get(ctx context.Context, attemptID uuid.UUID) (*model.Attempt, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return nil, err
	}
	return a.view(), nil
}

// State returns the current state of an attempt.
func (s *ExamSessionService) State(ctx context.Context, attemptID uuid.UUID) (model.SessionState, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return model.SessionState{}, err
	}
	return a.session.State(), nil
}

// RecordAnswer stores an answer. Multiple-choice answers must be one of the
// question's options. Answers sent after submission are ignored.
func (s *ExamSessionService) RecordAnswer(ctx context.Context, attemptID uuid.UUID, questionID int, value string) (model.SessionState, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return model.SessionState{}, err
	}

	q, ok := a.session.Question(questionID)
	if !ok {
		return model.SessionState{}, ErrQuestionNotFound
	}
	if q.Kind == model.QuestionKindMultipleChoice && !q.HasOption(value) {
		return model.SessionState{}, ErrInvalidAnswer
	}

	a.session.RecordAnswer(questionID, value)
	return a.session.State(), nil
}

// AttachFile stores a file reference, or clears it when ref is nil, for a
// free-response question that accepts attachments.
func (s *ExamSessionService) AttachFile(ctx context.Context, attemptID uuid.UUID, questionID int, ref *model.FileRef) (model.SessionState, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return model.SessionState{}, err
	}

	q, ok := a.session.Question(questionID)
	if !ok {
		return model.SessionState{}, ErrQuestionNotFound
	}
	if !q.AcceptsAttachment() {
		return model.SessionState{}, ErrAttachmentNotAllowed
	}

	a.session.AttachFile(questionID, ref)
	return a.session.State(), nil
}

// Next moves to the next question.
func (s *ExamSessionService) Next(ctx context.Context, attemptID uuid.UUID) (model.SessionState, error) {
	return s.apply(attemptID, (*examsession.Session).GoToNext)
}

// Previous moves to the previous question.
func (s *ExamSessionService) Previous(ctx context.Context, attemptID uuid.UUID) (model.SessionState, error) {
	return s.apply(attemptID, (*examsession.Session).GoToPrevious)
}

// Submit ends the attempt. Submitting twice is harmless.
func (s *ExamSessionService) Submit(ctx context.Context, attemptID uuid.UUID) (model.SessionState, error) {
	return s.apply(attemptID, (*examsession.Session).Submit)
}

// Result returns the submission record of an attempt. Records are looked up
// in the result store first and fall back to the live session, so a result
// is available as soon as the session is submitted even while the queue
// delivery is still in flight.
func (s *ExamSessionService) Result(ctx context.Context, attemptID uuid.UUID) (*model.SubmissionRecord, error) {
	rec, err := s.resultRepo.Get(ctx, attemptID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("get result: %w", err)
	}

	a, err := s.lookup(attemptID)
	if err != nil {
		return nil, err
	}
	snap, ok := a.session.Snapshot()
	if !ok {
		return nil, ErrResultNotReady
	}
	return &model.SubmissionRecord{
		AttemptID: a.id,
		ExamID:    a.examID,
		ExamTitle: a.examTitle,
		Snapshot:  snap,
	}, nil
}

// Subscribe returns a channel receiving the attempt state after every
// transition and a func that ends the subscription. The channel is closed
// when the subscription ends or the attempt is discarded. Updates are
// dropped for subscribers that fall behind.
func (s *ExamSessionService) Subscribe(ctx context.Context, attemptID uuid.UUID) (<-chan model.SessionState, func(), error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan model.SessionState, subscriberBuffer)

	a.subMu.Lock()
	if a.closed {
		a.subMu.Unlock()
		return nil, nil, ErrAttemptNotFound
	}
	id := a.nextSub
	a.nextSub++
	a.subs[id] = ch
	a.subMu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			a.subMu.Lock()
			defer a.subMu.Unlock()
			if sub, ok := a.subs[id]; ok {
				close(sub)
				delete(a.subs, id)
			}
		})
	}
	return ch, unsubscribe, nil
}

// Discard forgets an attempt and releases its timer. An active attempt is
// abandoned without being submitted. Discarding an unknown attempt is a no-op.
func (s *ExamSessionService) Discard(ctx context.Context, attemptID uuid.UUID) {
	s.mu.Lock()
	a, ok := s.attempts[attemptID]
	delete(s.attempts, attemptID)
	s.mu.Unlock()

	if !ok {
		return
	}

	a.cancel()
	<-a.timerDone
	a.closeSubscribers()

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Str("status", string(a.session.Status())).
		Msg("Attempt discarded")
}

// ActiveCount returns the number of attempts held in memory.
func (s *ExamSessionService) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.attempts)
}

// ListByExam returns the attempts of an exam held in memory, oldest first.
func (s *ExamSessionService) ListByExam(ctx context.Context, examID int) []*model.Attempt {
	s.mu.RLock()
	matched := make([]*attempt, 0)
	for _, a := range s.attempts {
		if a.examID == examID {
			matched = append(matched, a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].startedAt.Before(matched[j].startedAt)
	})

	out := make([]*model.Attempt, 0, len(matched))
	for _, a := range matched {
		out = append(out, a.view())
	}
	return out
}

// Shutdown releases every running timer and waits for them to stop.
// Attempts still active are left unsubmitted.
func (s *ExamSessionService) Shutdown() {
	s.cancel()
	s.wg.Wait()
	s.log.Info().Int("attempts", s.ActiveCount()).Msg("Exam session timers stopped")
}

func (s *ExamSessionService) lookup(attemptID uuid.UUID) (*attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.attempts[attemptID]
	if !ok {
		return nil, ErrAttemptNotFound
	}
	return a, nil
}

func (s *ExamSessionService) apply(attemptID uuid.UUID, op func(*examsession.Session) bool) (model.SessionState, error) {
	a, err := s.lookup(attemptID)
	if err != nil {
		return model.SessionState{}, err
	}
	op(a.session)
	return a.session.State(), nil
}

// publish runs on whichever goroutine submitted the session. When the
// publisher fails the record is kept locally so the result stays reachable.
func (s *ExamSessionService) publish(a *attempt, snap model.Snapshot, log zerolog.Logger) {
	rec := &model.SubmissionRecord{
		AttemptID: a.id,
		ExamID:    a.examID,
		ExamTitle: a.examTitle,
		Snapshot:  snap,
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, rec); err != nil {
		log.Error().Err(err).Msg("Publish snapshot failed, storing locally")
		if err := s.resultRepo.Save(ctx, rec); err != nil {
			log.Error().Err(err).Msg("Store snapshot failed")
		}
	}
}
