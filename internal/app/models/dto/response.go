package dto

import "time"

// PageMeta describes a 0-based page of a larger result set
type PageMeta struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPage"`
	TotalElements int64 `json:"totalElements"`
	IsFirst       bool  `json:"isFirst"`
	IsLast        bool  `json:"isLast"`
}

// PageResponse wraps one page of items
type PageResponse[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// GenericResponse is the timestamped envelope used by the audit endpoint
type GenericResponse[T any] struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Data      T         `json:"data"`
}

// SuccessResponse represents a plain message response
type SuccessResponse struct {
	Message string `json:"message"`
}
