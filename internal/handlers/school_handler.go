package handlers

import (
	"net/http"

	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type SchoolHandler struct {
	BaseHandler
	schoolService services.SchoolService
}

func NewSchoolHandler(schoolService services.SchoolService, logger utils.Logger) *SchoolHandler {
	return &SchoolHandler{
		BaseHandler:   NewBaseHandler(logger),
		schoolService: schoolService,
	}
}

// CreateSchool creates a school seeded with the default question set
// @Summary Create school
// @Tags schools
// @Accept json
// @Produce json
// @Param school body services.CreateSchoolRequest true "School data"
// @Success 201 {object} services.SchoolResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /schools [post]
func (h *SchoolHandler) CreateSchool(c *gin.Context) {
	h.LogRequest(c, "Creating school")

	var req services.CreateSchoolRequest
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

	school, err := h.schoolService.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, school)
}

// ListSchools lists all schools
// @Summary List schools
// @Tags schools
// @Produce json
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} services.SchoolListResponse
// @Failure 403 {object} ErrorResponse
// @Router /schools [get]
func (h *SchoolHandler) ListSchools(c *gin.Context) {
	h.LogRequest(c, "Listing schools")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	limit, offset := h.parsePagination(c)
	filters := repositories.SchoolFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if name := c.Query("name"); name != "" {
		filters.Name = &name
	}

	response, err := h.schoolService.List(c.Request.Context(), filters, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetSchool retrieves a school by ID
// @Summary Get school by ID
// @Tags schools
// @Produce json
// @Param id path uint true "School ID"
// @Success 200 {object} services.SchoolResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schools/{id} [get]
func (h *SchoolHandler) GetSchool(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting school", "school_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	school, err := h.schoolService.GetByID(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, school)
}

// UpdateSchool renames a school
// @Summary Update school
// @Tags schools
// @Accept json
// @Produce json
// @Param id path uint true "School ID"
// @Param school body services.UpdateSchoolRequest true "Fields to update"
// @Success 200 {object} services.SchoolResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schools/{id} [put]
func (h *SchoolHandler) UpdateSchool(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating school", "school_id", id)

	var req services.UpdateSchoolRequest
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

	school, err := h.schoolService.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, school)
}

// DeleteSchool removes a school and everything scoped to it
// @Summary Delete school
// @Description Removes the school with its users, questions and videos
// @Tags schools
// @Produce json
// @Param id path uint true "School ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schools/{id} [delete]
func (h *SchoolHandler) DeleteSchool(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting school", "school_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.schoolService.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "School deleted"})
}

// GetSchoolStats returns counters for a school's dashboard
// @Summary Get school statistics
// @Tags schools
// @Produce json
// @Param id path uint true "School ID"
// @Success 200 {object} repositories.SchoolStats
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /schools/{id}/stats [get]
func (h *SchoolHandler) GetSchoolStats(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting school stats", "school_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	stats, err := h.schoolService.GetStats(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
