package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/careersfromhere/testimonial-service/internal/services"
	"github.com/careersfromhere/testimonial-service/internal/utils"
	"github.com/careersfromhere/testimonial-service/internal/validator"
)

type HandlerManager struct {
	authHandler     *AuthHandler
	userHandler     *UserHandler
	questionHandler *QuestionHandler
	videoHandler    *VideoHandler
	schoolHandler   *SchoolHandler
	categoryHandler *CategoryHandler
	authMiddleware  *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	jwtSecret string,
	uploadDir string,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewJWTAuthMiddleware(jwtSecret, userRepo)

	return &HandlerManager{
		authHandler:     NewAuthHandler(serviceManager.User(), serviceManager.School(), authMiddleware, logger),
		userHandler:     NewUserHandler(serviceManager.User(), logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), validator, logger),
		videoHandler:    NewVideoHandler(serviceManager.Video(), validator, uploadDir, logger),
		schoolHandler:   NewSchoolHandler(serviceManager.School(), logger),
		categoryHandler: NewCategoryHandler(serviceManager.Category(), logger),
		authMiddleware:  authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Public routes: registration, login and the school dropdown
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/register", hm.authHandler.Register)
		auth.POST("/login", hm.authHandler.Login)
		auth.GET("/schools", hm.authHandler.ListSchools)
	}

	// Anonymous listing of publicly shared, approved videos
	router.GET("/api/v1/public/videos", hm.videoHandler.ListPublicVideos)

	// API v1 routes with authentication
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// School routes - management is super admin only, stats are shared
		// with the school's admin
		schools := v1.Group("/schools")
		{
			schools.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.schoolHandler.CreateSchool)
			schools.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.schoolHandler.ListSchools)
			schools.GET("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.schoolHandler.GetSchool)
			schools.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.schoolHandler.UpdateSchool)
			schools.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.schoolHandler.DeleteSchool)
			schools.GET("/:id/stats", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.schoolHandler.GetSchoolStats)

			// School-scoped question routes
			schools.POST("/:id/questions", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.CreateQuestion)
			schools.GET("/:id/questions", hm.questionHandler.ListActiveQuestions)
			schools.PUT("/:id/questions/reorder", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.ReorderQuestions)

			// Category ranking over a school's approved videos
			schools.GET("/:id/videos/rank", hm.videoHandler.RankVideos)
		}

		// User routes - Admins and Super Admins
		users := v1.Group("/users")
		{
			users.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.CreateUser)
			users.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ListUsers)
			users.GET("/pending", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.GetPendingUsers)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.DeleteUser)
			users.POST("/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.ApproveUser)
			users.POST("/bulk", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.BulkRegisterUsers)
			users.POST("/bulk/sheet", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.userHandler.BulkRegisterSheet)
		}

		// Question routes - admin listing and editing
		questions := v1.Group("/questions")
		{
			questions.GET("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.ListQuestions)
			questions.GET("/:id", hm.questionHandler.GetQuestion)
			questions.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.UpdateQuestion)
			questions.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.questionHandler.DeactivateQuestion)
		}

		// Video routes - creation is for alumni, approval for admins
		videos := v1.Group("/videos")
		{
			videos.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAlumni), hm.videoHandler.CreateVideo)
			videos.GET("", hm.videoHandler.ListVideos)
			videos.GET("/pending", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.videoHandler.GetPendingVideos)
			videos.GET("/:id", hm.videoHandler.GetVideo)
			videos.PUT("/:id", hm.videoHandler.UpdateVideo)
			videos.DELETE("/:id", hm.videoHandler.DeleteVideo)
			videos.POST("/:id/clips", hm.authMiddleware.RequireRoleMiddleware(models.RoleAlumni), hm.videoHandler.UploadClip)
			videos.POST("/:id/thumbnail", hm.authMiddleware.RequireRoleMiddleware(models.RoleAlumni), hm.videoHandler.UploadThumbnail)
			videos.POST("/:id/approve", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.videoHandler.ApproveVideo)
		}

		// Category routes - vocabulary is readable by everyone
		categories := v1.Group("/categories")
		{
			categories.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.categoryHandler.CreateCategory)
			categories.GET("", hm.categoryHandler.ListCategories)
			categories.GET("/:id", hm.categoryHandler.GetCategory)
			categories.PUT("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.categoryHandler.UpdateCategory)
			categories.DELETE("/:id", hm.authMiddleware.RequireRoleMiddleware(models.RoleSuperAdmin), hm.categoryHandler.DeleteCategory)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "testimonial-service",
		})
	})
}
