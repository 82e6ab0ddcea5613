package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/app/services"
	"github.com/studentdesk/student-api/internal/middleware"
)

// AuditController exposes the audit trail to admins
type AuditController struct {
	auditService services.AuditService
}

// NewAuditController creates a new AuditController
func NewAuditController(auditService services.AuditService) *AuditController {
	return &AuditController{auditService: auditService}
}

// GetLogs handles GET /audit/logs
func (c *AuditController) GetLogs(ctx *gin.Context) {
	logs, err := c.auditService.GetAllLogs(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.GenericResponse[[]dto.AuditLogResponse]{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusOK,
		Message:   "Audit logs retrieved successfully",
		Data:      dto.NewAuditLogResponses(logs),
	})
}
