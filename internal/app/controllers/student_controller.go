package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/app/repositories"
	"github.com/studentdesk/student-api/internal/app/services"
	"github.com/studentdesk/student-api/internal/middleware"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
	"github.com/studentdesk/student-api/internal/pkg/normalize"
)

// StudentController handles student endpoints
type StudentController struct {
	studentService services.StudentService
	logger         zerolog.Logger
}

// NewStudentController creates a new StudentController
func NewStudentController(studentService services.StudentService, logger zerolog.Logger) *StudentController {
	return &StudentController{studentService: studentService, logger: logger}
}

func parseID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Invalid student ID: "+ctx.Param("id")))
		return 0, false
	}
	return id, true
}

func optionalQuery(ctx *gin.Context, key string) *string {
	v, ok := ctx.GetQuery(key)
	if !ok {
		return nil
	}
	return normalize.Optional(&v)
}

// parseFilter reads the name, course, age and email query parameters.
func parseFilter(ctx *gin.Context) (repositories.StudentFilter, error) {
	filter := repositories.StudentFilter{
		Name:   optionalQuery(ctx, "name"),
		Course: optionalQuery(ctx, "course"),
		Email:  optionalQuery(ctx, "email"),
	}
	if raw := optionalQuery(ctx, "age"); raw != nil {
		age, err := strconv.Atoi(*raw)
		if err != nil {
			return filter, apperrors.NewValidationError(map[string]string{"age": "age must be a whole number"})
		}
		filter.Age = &age
	}
	return filter, nil
}

// List handles GET /api/students
func (c *StudentController) List(ctx *gin.Context) {
	filter, err := parseFilter(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page := helpers.ParsePageRequest(ctx, helpers.DefaultPageSize)

	result, err := c.studentService.List(ctx.Request.Context(), filter, page)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// Get handles GET /api/students/:id
func (c *StudentController) Get(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	student, err := c.studentService.GetByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, student)
}

// GroupByCourse handles GET /api/students/courses
func (c *StudentController) GroupByCourse(ctx *gin.Context) {
	groups, err := c.studentService.GroupByCourse(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, groups)
}

// Create handles POST /api/students
func (c *StudentController) Create(ctx *gin.Context) {
	var req dto.StudentRequest
	if !bindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.Create(ctx.Request.Context(), req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Failed to create student")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, student)
}

// Update handles PUT /api/students/:id
func (c *StudentController) Update(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}
	var req dto.StudentRequest
	if !bindJSON(ctx, &req) {
		return
	}

	student, err := c.studentService.Update(ctx.Request.Context(), id, req)
	if err != nil {
		c.logger.Warn().Err(err).Int64("studentID", id).Msg("Failed to update student")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, student)
}

// Delete handles DELETE /api/students/:id
func (c *StudentController) Delete(ctx *gin.Context) {
	id, ok := parseID(ctx)
	if !ok {
		return
	}

	if err := c.studentService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}
