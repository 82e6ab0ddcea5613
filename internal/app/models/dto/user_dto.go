package dto

import "github.com/studentdesk/student-api/internal/app/models"

// UserResponse is the public user profile with its presence flag
type UserResponse struct {
	ID       int64           `json:"id"`
	Username string          `json:"username"`
	FullName string          `json:"fullName"`
	Role     models.RoleType `json:"role"`
	Online   bool            `json:"online"`
}

// NewUserResponse maps a user and its online flag to the profile DTO.
func NewUserResponse(u *models.User, online bool) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Role:     u.Role,
		Online:   online,
	}
}
