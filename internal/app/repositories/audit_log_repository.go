package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/logger"
)

// AuditLogRepository appends to and reads the audit trail. There is no
// update or delete path.
type AuditLogRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(pool db.Querier) *AuditLogRepository {
	return &AuditLogRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	sql, args, err := r.sb.Insert("audit_logs").
		Columns("action", "endpoint", "details", "user_info").
		Values(entry.Action, entry.Endpoint, entry.Details, entry.User).
		Suffix("RETURNING id, timestamp").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create audit log SQL")
		return fmt.Errorf("failed to build create audit log query: %w", err)
	}

	if err := db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&entry.ID, &entry.Timestamp); err != nil {
		logger.Error().Err(err).Str("action", entry.Action).Msg("Error executing create audit log query")
		return fmt.Errorf("error creating audit log: %w", err)
	}
	return nil
}

// FindAll returns the whole trail, newest first.
func (r *AuditLogRepository) FindAll(ctx context.Context) ([]*models.AuditLog, error) {
	sql, args, err := r.sb.Select("id", "action", "endpoint", "details", "timestamp", "user_info").
		From("audit_logs").
		OrderBy("timestamp DESC", "id DESC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list audit logs SQL")
		return nil, fmt.Errorf("failed to build list audit logs query: %w", err)
	}

	rows, err := db.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list audit logs query")
		return nil, fmt.Errorf("error querying audit logs: %w", err)
	}
	defer rows.Close()

	logs := []*models.AuditLog{}
	for rows.Next() {
		l := &models.AuditLog{}
		if err := rows.Scan(&l.ID, &l.Action, &l.Endpoint, &l.Details, &l.Timestamp, &l.User); err != nil {
			return nil, fmt.Errorf("error scanning audit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
