package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studentdesk/student-api/internal/app/services"
	"github.com/studentdesk/student-api/internal/middleware"
)

// UserController lists registered users
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// ListUsers handles GET /api/users
func (c *UserController) ListUsers(ctx *gin.Context) {
	users, err := c.userService.ListUsers(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, users)
}
