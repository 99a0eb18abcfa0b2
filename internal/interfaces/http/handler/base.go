package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/installments/backend/internal/domain/shared"
	"github.com/installments/backend/internal/infrastructure/logger"
	"github.com/installments/backend/internal/interfaces/http/dto"
	"github.com/installments/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a 200 response for one page of a listing
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with an explicit status
func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, code, message string) {
	h.Error(c, http.StatusBadRequest, code, message)
}

// ValidationError sends a 400 VALIDATION_ERROR response with field details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError maps domain errors to their status and code. Anything else is
// logged and answered with a generic 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	if domainErr, ok := shared.AsDomainError(err); ok {
		h.Error(c, dto.GetHTTPStatus(domainErr.Code), domainErr.Code, domainErr.Message)
		return
	}

	_ = c.Error(err)
	logger.L(c.Request.Context()).Error("request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds the request body into req, answering 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.bindFailed(c, err, dto.ErrCodeInvalidJSON)
		return false
	}
	return true
}

// bindQuery binds the query string into req, answering 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		h.bindFailed(c, err, dto.ErrCodeInvalidInput)
		return false
	}
	return true
}

func (h *BaseHandler) bindFailed(c *gin.Context, err error, fallbackCode string) {
	if details := middleware.ValidationDetails(err); details != nil {
		h.ValidationError(c, details)
		return
	}
	h.BadRequest(c, fallbackCode, err.Error())
}

// pathID parses the :id path parameter, answering 400 when it is not a UUID
func (h *BaseHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, dto.ErrCodeInvalidInput, "Invalid id: "+c.Param("id"))
		return uuid.Nil, false
	}
	return id, true
}

// paginated sends one page of a listing with its meta
func paginated[T any](h *BaseHandler, c *gin.Context, page *shared.Paginated[T]) {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	h.SuccessWithMeta(c, items, page.Total, page.Page, page.PageSize)
}
