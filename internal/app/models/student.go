package models

import "time"

// Student defines the student model based on the 'students' table
type Student struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"` // stored normalized
	Age       int       `json:"age" db:"age"`
	CourseID  *int64    `json:"courseId,omitempty" db:"course_id"`
	Course    *Course   `json:"course,omitempty"` // relation, no db tag
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CourseName returns the course name, or nil for a course-less student.
func (s *Student) CourseName() *string {
	if s.Course == nil {
		return nil
	}
	name := s.Course.Name
	return &name
}
