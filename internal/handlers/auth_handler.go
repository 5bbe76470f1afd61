package handlers

import (
	"net/http"

	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	BaseHandler
	userService    services.UserService
	schoolService  services.SchoolService
	authMiddleware *JWTAuthMiddleware
}

func NewAuthHandler(userService services.UserService, schoolService services.SchoolService, authMiddleware *JWTAuthMiddleware, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:    NewBaseHandler(logger),
		userService:    userService,
		schoolService:  schoolService,
		authMiddleware: authMiddleware,
	}
}

// Register handles public self-registration
// @Summary Register an account
// @Description Creates a student or alumni account pending admin approval
// @Tags auth
// @Accept json
// @Produce json
// @Param account body services.RegisterRequest true "Registration data"
// @Success 201 {object} services.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	h.LogRequest(c, "Registering account")

	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login authenticates credentials and issues an access token
// @Summary Log in
// @Description Exchanges email and password for an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body services.LoginRequest true "Login credentials"
// @Success 200 {object} map[string]interface{} "Token and account"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Logging in", "email", req.Email)

	user, err := h.userService.Authenticate(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	token, err := h.authMiddleware.IssueToken(user)
	if err != nil {
		h.LogError(c, err, "Failed to issue token")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// ListSchools serves the registration form school dropdown
// @Summary List schools for registration
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /auth/schools [get]
func (h *AuthHandler) ListSchools(c *gin.Context) {
	schools, err := h.schoolService.ListPublic(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"schools": schools,
	})
}
