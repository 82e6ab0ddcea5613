package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/pkg/requestctx"
)

type memAuditRepo struct {
	entries []*models.AuditLog
	err     error
}

func (r *memAuditRepo) Create(_ context.Context, e *models.AuditLog) error {
	if r.err != nil {
		return r.err
	}
	e.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, e)
	return nil
}

func (r *memAuditRepo) FindAll(context.Context) ([]*models.AuditLog, error) {
	return r.entries, r.err
}

func TestAuditService_LogEvent_FromRequestContext(t *testing.T) {
	repo := &memAuditRepo{}
	svc := NewAuditService(repo, nopLogger)

	ctx := requestctx.WithEndpoint(context.Background(), "DELETE /api/students/3")
	ctx = requestctx.WithUsername(ctx, "admin")
	require.NoError(t, svc.LogEvent(ctx, ActionDeleteStudent, "Student deleted with ID: 3"))

	require.Len(t, repo.entries, 1)
	assert.Equal(t, "admin", repo.entries[0].User)
	assert.Equal(t, "DELETE /api/students/3", repo.entries[0].Endpoint)
}

func TestAuditService_LogEvent_Defaults(t *testing.T) {
	repo := &memAuditRepo{}
	svc := NewAuditService(repo, nopLogger)

	require.NoError(t, svc.LogEvent(context.Background(), ActionGroupByCourse, "x"))
	assert.Equal(t, requestctx.SystemUser, repo.entries[0].User)
	assert.Equal(t, requestctx.UnknownEndpoint, repo.entries[0].Endpoint)
}

func TestAuditService_Errors(t *testing.T) {
	repo := &memAuditRepo{err: errors.New("insert failed")}
	svc := NewAuditService(repo, nopLogger)

	assert.Error(t, svc.LogEvent(context.Background(), ActionCreateStudent, "x"))
	_, err := svc.GetAllLogs(context.Background())
	assert.Error(t, err)
}
