// Package examsession implements the state of a single exam attempt: the
// countdown clock, the current-question cursor and the collected answers and
// attachments. Every operation is serialized and total; mutations after
// submission are ignored.
package examsession

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/rs/zerolog"
)

var (
	ErrNoQuestions      = errors.New("exam definition has no questions")
	ErrNegativeDuration = errors.New("exam duration must not be negative")
)

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for lifecycle and stale-mutation diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithSubmitHandler registers fn to receive the snapshot exactly once, when
// the session is submitted.
func WithSubmitHandler(fn func(model.Snapshot)) Option {
	return func(s *Session) { s.onSubmit = fn }
}

// WithChangeHandler registers fn to receive the state after every effective
// transition. Handlers run in transition order and must not mutate the session.
func WithChangeHandler(fn func(model.SessionState)) Option {
	return func(s *Session) { s.onChange = fn }
}

// WithNow overrides the clock used to stamp the snapshot.
func WithNow(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// Session is one exam attempt.
type Session struct {
	mu          sync.Mutex
	notifyMu    sync.Mutex
	def         model.ExamDefinition
	cursor      int
	remaining   int
	answers     map[int]string
	attachments map[int]*model.FileRef
	status      model.SessionStatus
	snapshot    *model.Snapshot
	done        chan struct{}

	log      zerolog.Logger
	onSubmit func(model.Snapshot)
	onChange func(model.SessionState)
	now      func() time.Time
}

// New creates an active session positioned on the first question with the
// full duration remaining.
func New(def model.ExamDefinition, opts ...Option) (*Session, error) {
	if len(def.Questions) == 0 {
		return nil, ErrNoQuestions
	}
	if def.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeDuration, def.DurationSeconds)
	}

	s := &Session{
		def:         def,
		remaining:   def.DurationSeconds,
		answers:     make(map[int]string),
		attachments: make(map[int]*model.FileRef),
		status:      model.SessionStatusActive,
		done:        make(chan struct{}),
		log:         zerolog.Nop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Advance consumes one second. Reaching zero submits the session.
func (s *Session) Advance() bool {
	return s.mutate("advance", func() bool {
		if s.remaining > 0 {
			s.remaining--
		}
		if s.remaining == 0 {
			s.submitLocked(model.SubmitReasonExpired)
		}
		return true
	})
}

// RecordAnswer stores value as the answer to questionID, replacing any
// previous answer. The value is not checked against the question.
func (s *Session) RecordAnswer(questionID int, value string) bool {
	return s.mutate("record_answer", func() bool {
		s.answers[questionID] = value
		return true
	})
}

// AttachFile stores ref for questionID. A nil ref records an explicit "no file".
func (s *Session) AttachFile(questionID int, ref *model.FileRef) bool {
	return s.mutate("attach_file", func() bool {
		if ref != nil {
			cp := *ref
			ref = &cp
		}
		s.attachments[questionID] = ref
		return true
	})
}

// GoToNext moves the cursor forward. It is a no-op on the last question.
func (s *Session) GoToNext() bool {
	return s.mutate("go_to_next", func() bool {
		if s.cursor >= len(s.def.Questions)-1 {
			return false
		}
		s.cursor++
		return true
	})
}

// GoToPrevious moves the cursor back. It is a no-op on the first question.
func (s *Session) GoToPrevious() bool {
	return s.mutate("go_to_previous", func() bool {
		if s.cursor == 0 {
			return false
		}
		s.cursor--
		return true
	})
}

// Submit ends the session. Only the first call has an effect.
func (s *Session) Submit() bool {
	return s.mutate("submit", func() bool {
		s.submitLocked(model.SubmitReasonManual)
		return true
	})
}

// State returns what the presentation layer renders.
func (s *Session) State() model.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// Status returns the current lifecycle status.
func (s *Session) Status() model.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Snapshot returns the submission snapshot, or false while still active.
func (s *Session) Snapshot() (model.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return model.Snapshot{}, false
	}
	return cloneSnapshot(*s.snapshot), true
}

// Definition returns the exam definition the session was built from.
func (s *Session) Definition() model.ExamDefinition {
	return s.def
}

// Question looks up a question of the session by id.
func (s *Session) Question(questionID int) (model.Question, bool) {
	for _, q := range s.def.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return model.Question{}, false
}

// Done is closed when the session is submitted.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// mutate applies fn while the session is active and then notifies the
// handlers outside the state lock. notifyMu is taken before mu is released so
// notifications are delivered in transition order.
func (s *Session) mutate(op string, fn func() bool) bool {
	s.mu.Lock()
	if s.status != model.SessionStatusActive {
		s.mu.Unlock()
		s.log.Debug().Str("op", op).Msg("Ignored mutation on submitted session")
		return false
	}

	if !fn() {
		s.mu.Unlock()
		return false
	}

	state := s.stateLocked()
	var snap *model.Snapshot
	if s.status == model.SessionStatusSubmitted {
		cp := cloneSnapshot(*s.snapshot)
		snap = &cp
	}

	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	if snap != nil {
		s.log.Info().
			Str("reason", string(snap.Reason)).
			Int("answered", len(snap.Answers)).
			Int("remaining_seconds", snap.RemainingSeconds).
			Msg("Session submitted")
		if s.onSubmit != nil {
			s.onSubmit(*snap)
		}
	}
	if s.onChange != nil {
		s.onChange(state)
	}
	return true
}

func (s *Session) submitLocked(reason model.SubmitReason) {
	s.status = model.SessionStatusSubmitted
	s.snapshot = &model.Snapshot{
		Answers:          maps.Clone(s.answers),
		Attachments:      cloneAttachments(s.attachments),
		RemainingSeconds: s.remaining,
		Reason:           reason,
		SubmittedAt:      s.now(),
	}
	close(s.done)
}

func (s *Session) stateLocked() model.SessionState {
	n := len(s.def.Questions)
	return model.SessionState{
		Cursor:           s.cursor,
		QuestionCount:    n,
		RemainingSeconds: s.remaining,
		Clock:            FormatClock(s.remaining),
		Progress:         int(math.Round(float64(s.cursor+1) / float64(n) * 100)),
		Answered:         len(s.answers),
		Status:           s.status,
		Question:         s.def.Questions[s.cursor],
	}
}

// FormatClock renders seconds as minutes:seconds, e.g. 65 -> "1:05".
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func cloneSnapshot(s model.Snapshot) model.Snapshot {
	s.Answers = maps.Clone(s.Answers)
	s.Attachments = cloneAttachments(s.Attachments)
	return s
}

func cloneAttachments(in map[int]*model.FileRef) map[int]*model.FileRef {
	out := make(map[int]*model.FileRef, len(in))
	for id, ref := range in {
		if ref == nil {
			out[id] = nil
			continue
		}
		cp := *ref
		out[id] = &cp
	}
	return out
}
