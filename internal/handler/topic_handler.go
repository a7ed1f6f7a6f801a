package handler

import (
	"net/http"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/exammaker/exammaker-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// TopicHandler handles topic endpoints.
type TopicHandler struct {
	topicService *service.TopicService
}

// NewTopicHandler creates a new TopicHandler.
func NewTopicHandler(topicService *service.TopicService) *TopicHandler {
	return &TopicHandler{topicService: topicService}
}

// ListTopics godoc
// GET /api/v1/topics?search=
func (h *TopicHandler) ListTopics(c *gin.Context) {
	topics, err := h.topicService.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"topics": topics})
}

// CreateTopic godoc
// POST /api/v1/topics
func (h *TopicHandler) CreateTopic(c *gin.Context) {
	var req model.TopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	topic, err := h.topicService.Create(c.Request.Context(), req.Title)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"topic": topic})
}

// RenameTopic godoc
// PUT /api/v1/topics/:id
func (h *TopicHandler) RenameTopic(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	var req model.TopicRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	topic, err := h.topicService.Rename(c.Request.Context(), id, req.Title)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"topic": topic})
}

// DeleteTopic godoc
// DELETE /api/v1/topics/:id
func (h *TopicHandler) DeleteTopic(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.topicService.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "topic deleted"})
}
