package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error payload every endpoint returns
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps a payload with a human-readable message
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.FromContext(c, h.logger).Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string, args ...any) {
	utils.FromContext(c, h.logger).Error(msg, append(args, "error", err)...)
}

// getUserID returns the authenticated user's id, or 0 when unauthenticated
func (h *BaseHandler) getUserID(c *gin.Context) uint {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0
	}
	if id, ok := userID.(uint); ok {
		return id
	}
	return 0
}

// requireUserID aborts with 401 when no authenticated user is present
func (h *BaseHandler) requireUserID(c *gin.Context) (uint, bool) {
	id := h.getUserID(c)
	if id == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	return id, true
}

// parseIDParam parses a numeric path parameter, responding 400 on failure
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
			Details: err.Error(),
		})
		return 0
	}
	return uint(id)
}

func (h *BaseHandler) parseIntQuery(c *gin.Context, param string, defaultValue int) int {
	valueStr := c.Query(param)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// parsePagination turns page/size query parameters into limit and offset
func (h *BaseHandler) parsePagination(c *gin.Context) (limit, offset int) {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 10
	}
	return size, (page - 1) * size
}

// handleServiceError maps service errors onto HTTP status codes
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	// Handle custom error types first
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	var businessRuleError *services.BusinessRuleError
	if errors.As(err, &businessRuleError) {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: businessRuleError.Message,
			Details: map[string]interface{}{
				"rule":    businessRuleError.Rule,
				"context": businessRuleError.Context,
			},
		})
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
			Details: map[string]interface{}{
				"resource": permissionError.Resource,
				"action":   permissionError.Action,
				"reason":   permissionError.Reason,
			},
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrSchoolNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "School not found",
		})
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, services.ErrQuestionNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Question not found",
		})
	case errors.Is(err, services.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Video not found",
		})
	case errors.Is(err, services.ErrClipNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Video clip not found",
		})
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Category not found",
		})
	case errors.Is(err, services.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Email address already registered",
		})
	case errors.Is(err, services.ErrSchoolNameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "School name already exists",
		})
	case errors.Is(err, services.ErrCategoryNameTaken):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Category name already exists",
		})
	case errors.Is(err, services.ErrQuestionInactive):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Question is not active",
		})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Invalid email or password",
		})
	case errors.Is(err, services.ErrUserNotApproved):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Account awaits approval",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
