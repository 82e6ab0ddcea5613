package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/pkg/requestctx"
)

// Audit actions
const (
	ActionCreateStudent  = "CREATE_STUDENT"
	ActionUpdateStudent  = "UPDATE_STUDENT"
	ActionDeleteStudent  = "DELETE_STUDENT"
	ActionGetAllStudents = "GET_ALL_STUDENTS"
	ActionGroupByCourse  = "GROUP_BY_COURSE"
	ActionRegisterUser   = "REGISTER_USER"
)

// AuditLogRepository is the persistence the audit service needs
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	FindAll(ctx context.Context) ([]*models.AuditLog, error)
}

// AuditService records and lists audit events
type AuditService interface {
	// LogEvent appends one record. Endpoint and user come from ctx.
	LogEvent(ctx context.Context, action, details string) error
	GetAllLogs(ctx context.Context) ([]*models.AuditLog, error)
}

type auditService struct {
	repo   AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(repo AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) LogEvent(ctx context.Context, action, details string) error {
	entry := &models.AuditLog{
		Action:   action,
		Endpoint: requestctx.Endpoint(ctx),
		Details:  details,
		User:     requestctx.Username(ctx),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("Failed to write audit log")
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	s.logger.Debug().Str("action", action).Str("user", entry.User).Str("endpoint", entry.Endpoint).Msg("Audit event recorded")
	return nil
}

func (s *auditService) GetAllLogs(ctx context.Context) ([]*models.AuditLog, error) {
	logs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, nil
}
