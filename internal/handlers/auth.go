package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/careersfromhere/testimonial-service/internal/models"
	"github.com/careersfromhere/testimonial-service/internal/repositories"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// TokenTTL is the lifetime of issued access tokens
const TokenTTL = 24 * time.Hour

// AuthClaims are the JWT claims issued at login
type AuthClaims struct {
	UserID   uint            `json:"user_id"`
	Role     models.UserRole `json:"role"`
	SchoolID uint            `json:"school_id"`
	jwt.RegisteredClaims
}

// JWTAuthMiddleware issues and validates access tokens
type JWTAuthMiddleware struct {
	secret   []byte
	userRepo repositories.UserRepository
}

func NewJWTAuthMiddleware(secret string, userRepo repositories.UserRepository) *JWTAuthMiddleware {
	return &JWTAuthMiddleware{
		secret:   []byte(secret),
		userRepo: userRepo,
	}
}

// IssueToken creates a signed access token for an authenticated user
func (am *JWTAuthMiddleware) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		UserID:   user.ID,
		Role:     user.Role,
		SchoolID: user.SchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(am.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a signed token and returns its claims
func (am *JWTAuthMiddleware) ParseToken(tokenString string) (*AuthClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AuthClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return am.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*AuthClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// AuthMiddleware returns a Gin middleware validating the bearer token and
// loading the account behind it
func (am *JWTAuthMiddleware) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Authorization header missing",
			})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || !strings.EqualFold(tokenParts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid authorization header format",
			})
			c.Abort()
			return
		}

		claims, err := am.ParseToken(tokenParts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid token",
				Details: err.Error(),
			})
			c.Abort()
			return
		}

		// The account may have been deleted or suspended since the token
		// was issued
		user, err := am.userRepo.GetByID(c.Request.Context(), nil, claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Account no longer exists",
			})
			c.Abort()
			return
		}
		if !user.Approved {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Account awaits approval",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Set("user_role", user.Role)
		c.Set("school_id", user.SchoolID)

		c.Next()
	}
}

// RequireRoleMiddleware checks if the user has one of the required roles.
// Super admins always pass.
func (am *JWTAuthMiddleware) RequireRoleMiddleware(requiredRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "User role not found in context",
			})
			c.Abort()
			return
		}

		role, ok := userRole.(models.UserRole)
		if !ok {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: "Invalid user role format",
			})
			c.Abort()
			return
		}

		hasRequiredRole := false
		for _, requiredRole := range requiredRoles {
			if role == requiredRole || role == models.RoleSuperAdmin {
				hasRequiredRole = true
				break
			}
		}

		if !hasRequiredRole {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Message: fmt.Sprintf("Insufficient permissions, required role: %v", requiredRoles),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserFromContext extracts the loaded user from the Gin context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	user, exists := c.Get("user")
	if !exists {
		return nil, fmt.Errorf("user not found in context")
	}

	userModel, ok := user.(*models.User)
	if !ok {
		return nil, fmt.Errorf("invalid user type in context")
	}

	return userModel, nil
}
