package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerateKind selects the kinds of generated questions. Mixed alternates.
type GenerateKind string

const (
	GenerateKindMultipleChoice GenerateKind = "multiple_choice"
	GenerateKindFreeResponse   GenerateKind = "free_response"
	GenerateKindMixed          GenerateKind = "mixed"
)

// GeneratedQuestion is a draft question awaiting review.
type GeneratedQuestion struct {
	Text       string       `json:"text"`
	Kind       QuestionKind `json:"kind"`
	Difficulty Difficulty   `json:"difficulty"`
	Topic      string       `json:"topic"`
	Source     string       `json:"source"`
	Options    []string     `json:"options,omitempty"`
}

// GenerationBatch is one run of the generator, edited before it is saved.
type GenerationBatch struct {
	ID        uuid.UUID           `json:"id"`
	Questions []GeneratedQuestion `json:"questions"`
	CreatedAt time.Time           `json:"created_at"`
}

// GenerateQuestionsRequest is the payload for generating draft questions.
type GenerateQuestionsRequest struct {
	Topics     []string `json:"topics" binding:"omitempty,max=20,dive,required,max=100"`
	Sources    []string `json:"sources" binding:"omitempty,max=20,dive,required,max=255"`
	AllSources bool     `json:"all_sources"`
	Count      int      `json:"count" binding:"required,min=1"`
	Kind       string   `json:"kind" binding:"required,oneof=multiple_choice free_response mixed"`
	Difficulty string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
}

// EditGeneratedQuestionRequest is the payload for editing a draft question.
type EditGeneratedQuestionRequest struct {
	Text string `json:"text" binding:"required,min=1,max=2000"`
}
