package model

import (
	"slices"
	"time"
)

// QuestionKind enumerates how a question is answered.
type QuestionKind string

const (
	QuestionKindMultipleChoice QuestionKind = "multiple_choice"
	QuestionKindFreeResponse   QuestionKind = "free_response"
)

// Difficulty enumerates question bank difficulty levels.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Question is a single exam question as presented during an attempt.
// Options is only set for multiple-choice questions and AllowsAttachment
// only has meaning for free-response questions.
type Question struct {
	ID               int          `json:"id" yaml:"id"`
	Text             string       `json:"text" yaml:"text"`
	Kind             QuestionKind `json:"kind" yaml:"kind"`
	Options          []string     `json:"options,omitempty" yaml:"options"`
	AllowsAttachment bool         `json:"allows_attachment,omitempty" yaml:"allows_attachment"`
}

// HasOption reports whether value is one of the question's options.
func (q Question) HasOption(value string) bool {
	return slices.Contains(q.Options, value)
}

// AcceptsAttachment reports whether a file may be attached to the question.
func (q Question) AcceptsAttachment() bool {
	return q.Kind == QuestionKindFreeResponse && q.AllowsAttachment
}

// ExamQuestionRequest is a question embedded in a CreateExamRequest.
type ExamQuestionRequest struct {
	Text             string   `json:"text" binding:"required,min=1,max=2000"`
	Kind             string   `json:"kind" binding:"required,oneof=multiple_choice free_response"`
	Options          []string `json:"options" binding:"omitempty,max=10,dive,required,max=500"`
	AllowsAttachment bool     `json:"allows_attachment"`
}

// BankQuestion is a reusable question stored in the question bank.
type BankQuestion struct {
	ID            int          `json:"id" yaml:"id"`
	Text          string       `json:"text" yaml:"text"`
	Kind          QuestionKind `json:"kind" yaml:"kind"`
	Difficulty    Difficulty   `json:"difficulty" yaml:"difficulty"`
	Topic         string       `json:"topic" yaml:"topic"`
	Source        string       `json:"source,omitempty" yaml:"source"`
	Options       []string     `json:"options,omitempty" yaml:"options"`
	CorrectAnswer string       `json:"correct_answer,omitempty" yaml:"correct_answer"`
	CreatedAt     time.Time    `json:"created_at" yaml:"-"`
}

// BankQuestionFilter narrows a question bank listing. Empty fields match everything.
type BankQuestionFilter struct {
	Search     string `form:"search" binding:"omitempty,max=255"`
	Kind       string `form:"kind" binding:"omitempty,oneof=multiple_choice free_response"`
	Topic      string `form:"topic" binding:"omitempty,max=100"`
	Difficulty string `form:"difficulty" binding:"omitempty,oneof=easy medium hard"`
}

// AddBankQuestionRequest is the payload for adding a question to the bank.
type AddBankQuestionRequest struct {
	Text          string   `json:"text" binding:"required,min=1,max=2000"`
	Kind          string   `json:"kind" binding:"required,oneof=multiple_choice free_response"`
	Difficulty    string   `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Topic         string   `json:"topic" binding:"required,max=100"`
	Source        string   `json:"source" binding:"omitempty,max=255"`
	Options       []string `json:"options" binding:"omitempty,max=10,dive,required,max=500"`
	CorrectAnswer string   `json:"correct_answer" binding:"omitempty,max=500"`
}
