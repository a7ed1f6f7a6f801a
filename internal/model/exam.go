package model

import (
	"time"
)

// ExamKind describes the mix of question kinds in an exam.
type ExamKind string

const (
	ExamKindMultipleChoice ExamKind = "multiple_choice"
	ExamKindFreeResponse   ExamKind = "free_response"
	ExamKindMixed          ExamKind = "mixed"
)

// Author records who produced an exam.
type Author string

const (
	AuthorAI      Author = "ai"
	AuthorTeacher Author = "teacher"
)

// Exam is an entry of the exam catalogue.
type Exam struct {
	ID              int        `json:"id" yaml:"id"`
	Title           string     `json:"title" yaml:"title"`
	Subjects        []string   `json:"subjects" yaml:"subjects"`
	Kind            ExamKind   `json:"kind" yaml:"kind"`
	DurationMinutes int        `json:"duration_minutes" yaml:"duration_minutes"`
	CreatedBy       Author     `json:"created_by" yaml:"created_by"`
	CreatedAt       time.Time  `json:"created_at" yaml:"created_at"`
	Questions       []Question `json:"questions" yaml:"questions"`
}

// ExamSummary is the catalogue listing view of an exam.
type ExamSummary struct {
	ID              int       `json:"id"`
	Title           string    `json:"title"`
	Subjects        []string  `json:"subjects"`
	Kind            ExamKind  `json:"kind"`
	DurationMinutes int       `json:"duration_minutes"`
	CreatedBy       Author    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
	QuestionCount   int       `json:"question_count"`
}

// Summary returns the listing view of the exam.
func (e Exam) Summary() ExamSummary {
	return ExamSummary{
		ID:              e.ID,
		Title:           e.Title,
		Subjects:        e.Subjects,
		Kind:            e.Kind,
		DurationMinutes: e.DurationMinutes,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt,
		QuestionCount:   len(e.Questions),
	}
}

// Definition returns the immutable input an attempt is started from.
func (e Exam) Definition() ExamDefinition {
	questions := make([]Question, len(e.Questions))
	copy(questions, e.Questions)
	return ExamDefinition{
		Title:           e.Title,
		DurationSeconds: e.DurationMinutes * 60,
		Questions:       questions,
	}
}

// ExamDefinition is what an exam session is constructed from. The question
// order is the presentation order and is fixed for the session.
type ExamDefinition struct {
	Title           string     `json:"title"`
	DurationSeconds int        `json:"duration_seconds"`
	Questions       []Question `json:"questions"`
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title           string                `json:"title" binding:"required,min=3,max=255"`
	Subjects        []string              `json:"subjects" binding:"omitempty,max=20,dive,required,max=100"`
	Kind            string                `json:"kind" binding:"required,oneof=multiple_choice free_response mixed"`
	DurationMinutes int                   `json:"duration_minutes" binding:"required,min=1,max=480"`
	CreatedBy       string                `json:"created_by" binding:"omitempty,oneof=ai teacher"`
	Questions       []ExamQuestionRequest `json:"questions" binding:"required,min=1,max=200,dive"`
}
