package dto

import "github.com/studentdesk/student-api/internal/app/models"

// StudentRequest is the body of student create and update calls
type StudentRequest struct {
	Name       string `json:"name" validate:"required,max=255,personname"`
	Email      string `json:"email" validate:"required,max=255,email,studentemail"`
	Age        int    `json:"age" validate:"gte=1,lte=150"`
	CourseName string `json:"courseName" validate:"required,max=255"`
}

// StudentResponse is the public view of a student
type StudentResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Age        int     `json:"age"`
	CourseID   *int64  `json:"courseId"`
	CourseName *string `json:"courseName"`
}

// NewStudentResponse maps a student model to its DTO.
func NewStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:         s.ID,
		Name:       s.Name,
		Email:      s.Email,
		Age:        s.Age,
		CourseID:   s.CourseID,
		CourseName: s.CourseName(),
	}
}

// NewStudentResponses maps a slice of students.
func NewStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, NewStudentResponse(s))
	}
	return out
}

// CourseGroupResponse lists the students of one course. CourseName is null
// for students without a course.
type CourseGroupResponse struct {
	CourseName *string           `json:"courseName"`
	Students   []StudentResponse `json:"students"`
}
