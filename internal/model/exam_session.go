package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates exam session states.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusSubmitted SessionStatus = "submitted"
)

// SubmitReason records what ended an attempt.
type SubmitReason string

const (
	SubmitReasonManual  SubmitReason = "manual"
	SubmitReasonExpired SubmitReason = "expired"
)

// FileRef references a file picked by the candidate. Only metadata is kept.
type FileRef struct {
	Name        string `json:"name" binding:"required,max=255"`
	ContentType string `json:"content_type" binding:"omitempty,max=255"`
	Size        int64  `json:"size" binding:"min=0"`
}

// SessionState is what the presentation layer renders for a running attempt.
type SessionState struct {
	Cursor           int           `json:"cursor"`
	QuestionCount    int           `json:"question_count"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Clock            string        `json:"clock"`
	Progress         int           `json:"progress"`
	Answered         int           `json:"answered"`
	Status           SessionStatus `json:"status"`
	Question         Question      `json:"question"`
}

// Snapshot is the final answers/attachments state captured at submission.
type Snapshot struct {
	Answers          map[int]string   `json:"answers"`
	Attachments      map[int]*FileRef `json:"attachments"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Reason           SubmitReason     `json:"reason"`
	SubmittedAt      time.Time        `json:"submitted_at"`
}

// SubmissionRecord is a snapshot routed to the result view.
type SubmissionRecord struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	ExamID    int       `json:"exam_id"`
	ExamTitle string    `json:"exam_title"`
	Snapshot  Snapshot  `json:"snapshot"`
}

// Attempt describes a started attempt.
type Attempt struct {
	ID        uuid.UUID    `json:"id"`
	ExamID    int          `json:"exam_id"`
	ExamTitle string       `json:"exam_title"`
	StartedAt time.Time    `json:"started_at"`
	State     SessionState `json:"state"`
}

// RecordAnswerRequest is the payload for answering a question.
type RecordAnswerRequest struct {
	Value string `json:"value" binding:"max=10000"`
}

// AttachFileRequest is the payload for attaching (or clearing, with a null file) a file.
type AttachFileRequest struct {
	File *FileRef `json:"file"`
}
