package repositories

import (
	"github.com/studentdesk/student-api/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	StudentRepository  *StudentRepository
	CourseRepository   *CourseRepository
	UserRepository     *UserRepository
	MessageRepository  *MessageRepository
	AuditLogRepository *AuditLogRepository
}

// NewRepositories initializes all repositories over one pool
func NewRepositories(pool db.Querier) *Repositories {
	return &Repositories{
		StudentRepository:  NewStudentRepository(pool),
		CourseRepository:   NewCourseRepository(pool),
		UserRepository:     NewUserRepository(pool),
		MessageRepository:  NewMessageRepository(pool),
		AuditLogRepository: NewAuditLogRepository(pool),
	}
}
