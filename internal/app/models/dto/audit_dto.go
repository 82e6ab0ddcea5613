package dto

import (
	"time"

	"github.com/studentdesk/student-api/internal/app/models"
)

// AuditLogResponse is one audit trail entry
type AuditLogResponse struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Endpoint  string    `json:"endpoint"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
	User      string    `json:"user"`
}

// NewAuditLogResponses maps audit log rows.
func NewAuditLogResponses(logs []*models.AuditLog) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, AuditLogResponse{
			ID:        l.ID,
			Action:    l.Action,
			Endpoint:  l.Endpoint,
			Details:   l.Details,
			Timestamp: l.Timestamp,
			User:      l.User,
		})
	}
	return out
}
