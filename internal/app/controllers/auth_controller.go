// Package controllers handles HTTP request handling
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/app/services"
	"github.com/studentdesk/student-api/internal/middleware"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
)

// AuthController handles authentication related operations
type AuthController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(userService services.UserService, logger zerolog.Logger) *AuthController {
	return &AuthController{userService: userService, logger: logger}
}

// bindJSON decodes the request body and answers 400 on malformed JSON.
func bindJSON(ctx *gin.Context, obj any) bool {
	if err := ctx.ShouldBindJSON(obj); err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Malformed request body"))
		return false
	}
	return true
}

// currentUser returns the authenticated username or answers 401.
func currentUser(ctx *gin.Context) (string, bool) {
	username, ok := middleware.CurrentUsername(ctx)
	if !ok {
		middleware.AbortWithError(ctx, http.StatusUnauthorized, "Authentication required", nil)
	}
	return username, ok
}

// Register handles POST /api/auth/register
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if !bindJSON(ctx, &req) {
		return
	}

	user, err := c.userService.Register(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Registration failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// Login handles POST /api/auth/login
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	token, err := c.userService.Login(ctx.Request.Context(), req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, token)
}

// Me handles GET /api/auth/me
func (c *AuthController) Me(ctx *gin.Context) {
	username, ok := currentUser(ctx)
	if !ok {
		return
	}

	user, err := c.userService.GetCurrentUser(ctx.Request.Context(), username)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, user)
}
