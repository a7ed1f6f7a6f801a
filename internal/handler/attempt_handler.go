package handler

import (
	"context"
	"net/http"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/exammaker/exammaker-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AttemptHandler handles exam-taking endpoints.
type AttemptHandler struct {
	sessionService *service.ExamSessionService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(sessionService *service.ExamSessionService) *AttemptHandler {
	return &AttemptHandler{sessionService: sessionService}
}

// StartAttempt godoc
// POST /api/v1/exams/:id/attempts
// Starts a timed attempt of an exam.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	examID, ok := intParam(c, "id")
	if !ok {
		return
	}

	attempt, err := h.sessionService.Start(c.Request.Context(), examID)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"attempt": attempt})
}

// GetAttempt godoc
// GET /api/v1/attempts/:attempt_id
func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	id, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	attempt, err := h.sessionService.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// RecordAnswer godoc
// PUT /api/v1/attempts/:attempt_id/answers/:question_id
func (h *AttemptHandler) RecordAnswer(c *gin.Context) {
	id, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "question_id")
	if !ok {
		return
	}

	var req model.RecordAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.RecordAnswer(c.Request.Context(), id, questionID, req.Value)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// AttachFile godoc
// PUT /api/v1/attempts/:attempt_id/attachments/:question_id
// Stores the picked file's metadata. A null file clears the attachment.
func (h *AttemptHandler) AttachFile(c *gin.Context) {
	id, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}
	questionID, ok := intParam(c, "question_id")
	if !ok {
		return
	}

	var req model.AttachFileRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.sessionService.AttachFile(c.Request.Context(), id, questionID, req.File)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}

// Next godoc
// POST /api/v1/attempts/:attempt_id/next
func (h *AttemptHandler) Next(c *gin.Context) {
	h.transition(c, h.sessionService.Next)
}

// Previous godoc
// POST /api/v1/attempts/:attempt_id/previous
func (h *AttemptHandler) Previous(c *gin.Context) {
	h.transition(c, h.sessionService.Previous)
}

// Submit godoc
// POST /api/v1/attempts/:attempt_id/submit
func (h *AttemptHandler) Submit(c *gin.Context) {
	h.transition(c, h.sessionService.Submit)
}

// Result godoc
// GET /api/v1/attempts/:attempt_id/result
// Returns the submitted answers and attachments for the confirmation view.
func (h *AttemptHandler) Result(c *gin.Context) {
	id, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	rec, err := h.sessionService.Result(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"result": rec})
}

// DiscardAttempt godoc
// DELETE /api/v1/attempts/:attempt_id
// Leaves the attempt view: stops the countdown and forgets the attempt.
func (h *AttemptHandler) DiscardAttempt(c *gin.Context) {
	id, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	h.sessionService.Discard(c.Request.Context(), id)
	response.Success(c, http.StatusOK, gin.H{"message": "attempt closed"})
}

type transitionFunc func(ctx context.Context, id uuid.UUID) (model.SessionState, error)

func (h *AttemptHandler) transition(c *gin.Context, fn transitionFunc) {
	id, ok := uuidParam(c, "attempt_id")
	if !ok {
		return
	}

	state, err := fn(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": state})
}
