package handlers

import (
	"net/http"
	"strconv"

	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/careersfromhere/testimonial-service/internal/validator"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	validator       *validator.Validator
}

func NewQuestionHandler(questionService services.QuestionService, validator *validator.Validator, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		validator:       validator,
	}
}

// CreateQuestion adds a question to the end of a school's active set
// @Summary Create question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "School ID"
// @Param question body services.CreateQuestionRequest true "Question data"
// @Success 201 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /schools/{id}/questions [post]
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	schoolID := h.parseIDParam(c, "id")
	if schoolID == 0 {
		return
	}

	h.LogRequest(c, "Creating question", "school_id", schoolID)

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), schoolID, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, question)
}

// ListQuestions lists questions with optional filters
// @Summary List questions
// @Tags questions
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Param active query bool false "Filter by active state"
// @Success 200 {object} services.QuestionListResponse
// @Failure 403 {object} ErrorResponse
// @Router /questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	h.LogRequest(c, "Listing questions")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseQuestionFilters(c)

	response, err := h.questionService.List(c.Request.Context(), filters, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ListActiveQuestions returns a school's active questions in recording order
// @Summary List active questions
// @Tags questions
// @Produce json
// @Param id path uint true "School ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /schools/{id}/questions [get]
func (h *QuestionHandler) ListActiveQuestions(c *gin.Context) {
	schoolID := h.parseIDParam(c, "id")
	if schoolID == 0 {
		return
	}

	h.LogRequest(c, "Listing active questions", "school_id", schoolID)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	questions, err := h.questionService.ListActive(c.Request.Context(), schoolID, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"questions": questions,
		"total":     len(questions),
	})
}

// GetQuestion retrieves a question by ID
// @Summary Get question by ID
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} services.QuestionResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [get]
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting question", "question_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	question, err := h.questionService.GetByID(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// UpdateQuestion edits a question's text or answer window
// @Summary Update question
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "Question ID"
// @Param question body services.UpdateQuestionRequest true "Fields to update"
// @Success 200 {object} services.QuestionResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /questions/{id} [put]
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, question)
}

// DeactivateQuestion removes a question from the active set
// @Summary Deactivate question
// @Description Takes the question out of the recording flow and renumbers the rest
// @Tags questions
// @Produce json
// @Param id path uint true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /questions/{id} [delete]
func (h *QuestionHandler) DeactivateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deactivating question", "question_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.questionService.Deactivate(c.Request.Context(), id, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deactivated"})
}

// ReorderQuestions applies a new ordering to a school's active questions.
// The order is accepted as a JSON body or as a comma-separated order query
// parameter ("3,1,2").
// @Summary Reorder questions
// @Tags questions
// @Accept json
// @Produce json
// @Param id path uint true "School ID"
// @Param order body validator.QuestionReorderRequest false "New positions"
// @Param order query string false "Comma-separated positions"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /schools/{id}/questions/reorder [put]
func (h *QuestionHandler) ReorderQuestions(c *gin.Context) {
	schoolID := h.parseIDParam(c, "id")
	if schoolID == 0 {
		return
	}

	h.LogRequest(c, "Reordering questions", "school_id", schoolID)

	var order []int
	if spec := c.Query("order"); spec != "" {
		parsed, err := validator.ParseOrderSpec(spec)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid order parameter",
				Details: err.Error(),
			})
			return
		}
		order = parsed
	} else {
		var req validator.QuestionReorderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
		order = req.Order
	}

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	questions, err := h.questionService.Reorder(c.Request.Context(), schoolID, order, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"questions": questions,
		"total":     len(questions),
	})
}

// ===== HELPER METHODS =====

func (h *QuestionHandler) parseQuestionFilters(c *gin.Context) repositories.QuestionFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.QuestionFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filters.Active = &active
	}

	if schoolIDStr := c.Query("school_id"); schoolIDStr != "" {
		if schoolID, err := strconv.ParseUint(schoolIDStr, 10, 32); err == nil {
			id := uint(schoolID)
			filters.SchoolID = &id
		}
	}

	return filters
}
