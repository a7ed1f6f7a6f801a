package handler

import (
	"net/http"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/exammaker/exammaker-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// ResourceHandler handles study resource endpoints.
type ResourceHandler struct {
	resourceService *service.ResourceService
}

// NewResourceHandler creates a new ResourceHandler.
func NewResourceHandler(resourceService *service.ResourceService) *ResourceHandler {
	return &ResourceHandler{resourceService: resourceService}
}

// ListResources godoc
// GET /api/v1/resources?kind=&topic=
func (h *ResourceHandler) ListResources(c *gin.Context) {
	var filter model.ResourceFilter
	if fields := validator.BindQuery(c, &filter); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resources, err := h.resourceService.List(c.Request.Context(), filter)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"resources": resources})
}

// CreateResource godoc
// POST /api/v1/resources
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	var req model.CreateResourceRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.resourceService.Create(c.Request.Context(), &req)
	if err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"resource": res})
}

// DeleteResource godoc
// DELETE /api/v1/resources/:id
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}

	if err := h.resourceService.Delete(c.Request.Context(), id); err != nil {
		failWithError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "resource deleted"})
}
