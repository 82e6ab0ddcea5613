package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/auth"
	"github.com/studentdesk/student-api/internal/pkg/requestctx"
)

// Gin context keys set by JWTAuth
const (
	ContextUsernameKey = "username"
	ContextRoleKey     = "role"
)

// TokenValidator verifies access tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := auth.ExtractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			AbortWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		claims, err := m.tokens.ValidateToken(tokenString)
		if err != nil {
			message := "Invalid token"
			if apperrors.Is(err, apperrors.ErrTokenExpired) {
				message = "Token has expired"
			}
			AbortWithError(c, http.StatusUnauthorized, message, nil)
			return
		}

		c.Set(ContextUsernameKey, claims.Username())
		c.Set(ContextRoleKey, models.ParseRole(claims.Role))
		c.Request = c.Request.WithContext(requestctx.WithUsername(c.Request.Context(), claims.Username()))

		c.Next()
	}
}

// RoleRequired middleware to check if user has required role
func (m *AuthMiddleware) RoleRequired(requiredRole models.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Ensure JWTAuth middleware has run first
		role, exists := c.Get(ContextRoleKey)
		if !exists {
			AbortWithError(c, http.StatusUnauthorized, "Authentication required", nil)
			return
		}

		if r, ok := role.(models.RoleType); !ok || r != requiredRole {
			AbortWithError(c, http.StatusForbidden, "Access denied", nil)
			return
		}

		c.Next()
	}
}

// CurrentUsername returns the principal set by JWTAuth.
func CurrentUsername(c *gin.Context) (string, bool) {
	username := c.GetString(ContextUsernameKey)
	return username, username != ""
}
