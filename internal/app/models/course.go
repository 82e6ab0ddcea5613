package models

import "time"

// Course groups students. Names are unique case-insensitively.
type Course struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
