package handler

import (
	"net/http"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/exammaker/exammaker-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// GenerationHandler handles draft question generation.
type GenerationHandler struct {
	generationService *service.GenerationService
}

// NewGenerationHandler creates a new GenerationHandler.
func NewGenerationHandler(generationService *service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

// Generate godoc
// POST /api/v1/generations
// Produces a batch of draft questions for review.
func (h *GenerationHandler) Generate(c *gin.Context) {
	var req model.GenerateQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	batch, err := h.generationService.Generate(c.Request.Context(), &req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"batch": batch})
}

// GetBatch godoc
// GET /api/v1/generations/:id
func (h *GenerationHandler) GetBatch(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	batch, err := h.generationService.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"batch": batch})
}

// EditQuestion godoc
// PUT /api/v1/generations/:id/questions/:index
func (h *GenerationHandler) EditQuestion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}

	var req model.EditGeneratedQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	batch, err := h.generationService.Edit(c.Request.Context(), id, index, req.Text)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"batch": batch})
}

// RemoveQuestion godoc
// DELETE /api/v1/generations/:id/questions/:index
func (h *GenerationHandler) RemoveQuestion(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	index, ok := intParam(c, "index")
	if !ok {
		return
	}

	batch, err := h.generationService.Remove(c.Request.Context(), id, index)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"batch": batch})
}

// SaveBatch godoc
// POST /api/v1/generations/:id/save
// Moves every draft into the question bank.
func (h *GenerationHandler) SaveBatch(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	questions, err := h.generationService.Save(c.Request.Context(), id)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"questions": questions})
}

// DiscardBatch godoc
// DELETE /api/v1/generations/:id
func (h *GenerationHandler) DiscardBatch(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.generationService.Discard(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "batch discarded"})
}
