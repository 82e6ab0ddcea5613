package models

import "time"

// AuditLog is an append-only record of who did what, when, and through
// which endpoint.
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	Action    string    `json:"action" db:"action"`
	Endpoint  string    `json:"endpoint" db:"endpoint"`
	Details   string    `json:"details" db:"details"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	User      string    `json:"user" db:"user_info"`
}
