package handlers

import (
	"net/http"
	"strconv"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	BaseHandler
	userService services.UserService
}

func NewUserHandler(userService services.UserService, logger utils.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: NewBaseHandler(logger),
		userService: userService,
	}
}

// CreateUser creates a user account directly
// @Summary Create user
// @Description Creates an account in the caller's school (admins) or any school (super admins)
// @Tags users
// @Accept json
// @Produce json
// @Param user body services.CreateUserRequest true "User data"
// @Success 201 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	h.LogRequest(c, "Creating user")

	var req services.CreateUserRequest
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

	user, err := h.userService.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// ListUsers lists users with optional filtering
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 10, max: 100)"
// @Param role query string false "Filter by role"
// @Param approved query bool false "Filter by approval state"
// @Success 200 {object} services.UserListResponse
// @Failure 403 {object} ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	h.LogRequest(c, "Listing users")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	filters := h.parseUserFilters(c)

	response, err := h.userService.List(c.Request.Context(), filters, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetPendingUsers lists accounts waiting for approval
// @Summary List pending users
// @Tags users
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} ErrorResponse
// @Router /users/pending [get]
func (h *UserHandler) GetPendingUsers(c *gin.Context) {
	h.LogRequest(c, "Listing pending users")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	users, err := h.userService.GetPending(c.Request.Context(), actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// GetUser retrieves a user by ID
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {object} services.UserResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting user", "user_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUser edits an account
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path uint true "User ID"
// @Param user body services.UpdateUserRequest true "Fields to update"
// @Success 200 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating user", "user_id", id)

	var req services.UpdateUserRequest
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

	user, err := h.userService.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser removes an account and its videos
// @Summary Delete user
// @Tags users
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting user", "user_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "User deleted"})
}

// ApproveUser approves a pending account
// @Summary Approve user
// @Tags users
// @Produce json
// @Param id path uint true "User ID"
// @Success 200 {object} services.UserResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /users/{id}/approve [post]
func (h *UserHandler) ApproveUser(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Approving user", "user_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	user, err := h.userService.Approve(c.Request.Context(), id, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// BulkRegisterUsers invites many users from a pasted address list
// @Summary Bulk register users
// @Description Creates approved accounts with generated passwords, one per address line
// @Tags users
// @Accept json
// @Produce json
// @Param invitation body services.BulkRegisterRequest true "Addresses, role and school"
// @Success 201 {object} services.BulkRegisterResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/bulk [post]
func (h *UserHandler) BulkRegisterUsers(c *gin.Context) {
	h.LogRequest(c, "Bulk registering users")

	var req services.BulkRegisterRequest
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

	result, err := h.userService.BulkRegister(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// BulkRegisterSheet invites users from an uploaded spreadsheet
// @Summary Bulk register users from a spreadsheet
// @Description Reads addresses from the first column of the first sheet
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Spreadsheet (.xlsx)"
// @Param role formData string true "Role to assign (student or alumni)"
// @Param school_id formData int true "Target school"
// @Success 201 {object} services.BulkRegisterResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /users/bulk/sheet [post]
func (h *UserHandler) BulkRegisterSheet(c *gin.Context) {
	h.LogRequest(c, "Bulk registering users from sheet")

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	schoolID, err := strconv.ParseUint(c.PostForm("school_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid school_id",
			Details: err.Error(),
		})
		return
	}
	role := models.UserRole(c.PostForm("role"))

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Spreadsheet file is required",
			Details: err.Error(),
		})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Could not read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.userService.BulkRegisterSheet(c.Request.Context(), file, role, uint(schoolID), actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ===== HELPER METHODS =====

func (h *UserHandler) parseUserFilters(c *gin.Context) repositories.UserFilters {
	limit, offset := h.parsePagination(c)

	filters := repositories.UserFilters{
		Limit:     limit,
		Offset:    offset,
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if role := c.Query("role"); role != "" {
		userRole := models.UserRole(role)
		filters.Role = &userRole
	}

	if approvedStr := c.Query("approved"); approvedStr != "" {
		approved := approvedStr == "true"
		filters.Approved = &approved
	}

	if schoolIDStr := c.Query("school_id"); schoolIDStr != "" {
		if schoolID, err := strconv.ParseUint(schoolIDStr, 10, 32); err == nil {
			id := uint(schoolID)
			filters.SchoolID = &id
		}
	}

	return filters
}
