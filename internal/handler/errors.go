package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/exammaker/exammaker-backend/internal/response"
	"github.com/exammaker/exammaker-backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// classify maps a service error onto an HTTP status and error code.
func classify(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		return http.StatusNotFound, response.ErrExamNotFound
	case errors.Is(err, service.ErrAttemptNotFound):
		return http.StatusNotFound, response.ErrAttemptNotFound
	case errors.Is(err, service.ErrQuestionNotFound):
		return http.StatusNotFound, response.ErrQuestionNotInExam
	case errors.Is(err, service.ErrInvalidAnswer):
		return http.StatusUnprocessableEntity, response.ErrInvalidAnswer
	case errors.Is(err, service.ErrAttachmentNotAllowed):
		return http.StatusUnprocessableEntity, response.ErrAttachmentNotAllowed
	case errors.Is(err, service.ErrResultNotReady):
		return http.StatusConflict, response.ErrResultNotReady
	case errors.Is(err, service.ErrNoQuestions):
		return http.StatusBadRequest, response.ErrNoQuestions
	case errors.Is(err, service.ErrInvalidQuestion):
		return http.StatusBadRequest, response.ErrInvalidQuestion
	case errors.Is(err, service.ErrBatchNotFound):
		return http.StatusNotFound, response.ErrBatchNotFound
	case errors.Is(err, service.ErrBankQuestionNotFound),
		errors.Is(err, service.ErrTopicNotFound),
		errors.Is(err, service.ErrResourceNotFound),
		errors.Is(err, service.ErrDraftIndexOutOfRange):
		return http.StatusNotFound, response.ErrNotFound
	case errors.Is(err, service.ErrDuplicateTopic):
		return http.StatusConflict, response.ErrConflict
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWithError writes the envelope for err. Field errors keep their field
// name; unexpected errors are attached to the context for the request log.
func failWithError(c *gin.Context, err error) {
	var fe *service.FieldError
	if errors.As(err, &fe) {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{fe.Field: fe.Reason})
		return
	}

	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	response.Fail(c, status, code)
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id < 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}

func pageParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "10"))
	return page, perPage
}
