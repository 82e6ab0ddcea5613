package dto

import (
	"net/http"
	"time"
)

// ErrorResponse is the JSON body of every REST error
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewErrorResponse builds the envelope; Error is the status reason phrase.
func NewErrorResponse(status int, message string, details map[string]string) ErrorResponse {
	return ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Details:   details,
	}
}
