package handlers

import (
	"net/http"

	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	BaseHandler
	categoryService services.CategoryService
}

func NewCategoryHandler(categoryService services.CategoryService, logger utils.Logger) *CategoryHandler {
	return &CategoryHandler{
		BaseHandler:     NewBaseHandler(logger),
		categoryService: categoryService,
	}
}

// CreateCategory creates a category
// @Summary Create category
// @Tags categories
// @Accept json
// @Produce json
// @Param category body services.CreateCategoryRequest true "Category data"
// @Success 201 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	h.LogRequest(c, "Creating category")

	var req services.CreateCategoryRequest
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

	category, err := h.categoryService.Create(c.Request.Context(), &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, category)
}

// ListCategories lists the category vocabulary
// @Summary List categories
// @Tags categories
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"categories": categories,
		"total":      len(categories),
	})
}

// GetCategory retrieves a category by ID
// @Summary Get category by ID
// @Tags categories
// @Produce json
// @Param id path uint true "Category ID"
// @Success 200 {object} models.Category
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [get]
func (h *CategoryHandler) GetCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	category, err := h.categoryService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// UpdateCategory renames a category
// @Summary Update category
// @Tags categories
// @Accept json
// @Produce json
// @Param id path uint true "Category ID"
// @Param category body services.UpdateCategoryRequest true "Fields to update"
// @Success 200 {object} models.Category
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating category", "category_id", id)

	var req services.UpdateCategoryRequest
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

	category, err := h.categoryService.Update(c.Request.Context(), id, &req, actorID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, category)
}

// DeleteCategory removes a category and its video links
// @Summary Delete category
// @Tags categories
// @Produce json
// @Param id path uint true "Category ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting category", "category_id", id)

	actorID, ok := h.requireUserID(c)
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id, actorID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Category deleted"})
}
