package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/app/repositories"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
	"github.com/studentdesk/student-api/internal/pkg/normalize"
	"github.com/studentdesk/student-api/internal/pkg/validation"
)

// StudentRepository is the student persistence the service needs
type StudentRepository interface {
	Create(ctx context.Context, s *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	List(ctx context.Context, filter repositories.StudentFilter, page helpers.PageRequest) ([]*models.Student, int64, error)
	FindAll(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, s *models.Student) error
	Delete(ctx context.Context, id int64) error
}

// CourseRepository resolves courses by name
type CourseRepository interface {
	GetOrCreate(ctx context.Context, name string) (*models.Course, error)
}

// StudentService defines the student use cases
type StudentService interface {
	Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error)
	GetByID(ctx context.Context, id int64) (*dto.StudentResponse, error)
	List(ctx context.Context, filter repositories.StudentFilter, page helpers.PageRequest) (*dto.PageResponse[dto.StudentResponse], error)
	GroupByCourse(ctx context.Context) ([]dto.CourseGroupResponse, error)
	Update(ctx context.Context, id int64, req dto.StudentRequest) (*dto.StudentResponse, error)
	Delete(ctx context.Context, id int64) error
}

type studentService struct {
	students  StudentRepository
	courses   CourseRepository
	audit     AuditService
	tx        db.Transactor
	validator *validation.Validator
	logger    zerolog.Logger
}

// NewStudentService creates a new StudentService
func NewStudentService(
	students StudentRepository,
	courses CourseRepository,
	audit AuditService,
	tx db.Transactor,
	validator *validation.Validator,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:  students,
		courses:   courses,
		audit:     audit,
		tx:        tx,
		validator: validator,
		logger:    logger,
	}
}

func studentNotFound(id int64) error {
	return apperrors.NewCustomError(apperrors.ErrStudentNotFound, fmt.Sprintf("Student not found with ID: %d", id))
}

func emailConflict(email string) error {
	return apperrors.NewCustomError(apperrors.ErrStudentEmailExists, "Email already exists: "+email)
}

// mapStudentError attaches user-facing messages to repository sentinels.
func mapStudentError(err error, id int64, email string) error {
	switch {
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return studentNotFound(id)
	case errors.Is(err, apperrors.ErrStudentEmailExists):
		return emailConflict(email)
	default:
		return err
	}
}

// prepare normalizes req and validates the result.
func (s *studentService) prepare(req dto.StudentRequest) (dto.StudentRequest, error) {
	req.Name = normalize.Name(req.Name)
	req.Email = normalize.Email(req.Email)
	req.CourseName = strings.TrimSpace(req.CourseName)
	return req, s.validator.Struct(req)
}

// apply copies a prepared request onto student and resolves its course.
func (s *studentService) apply(ctx context.Context, student *models.Student, req dto.StudentRequest) error {
	course, err := s.courses.GetOrCreate(ctx, req.CourseName)
	if err != nil {
		return fmt.Errorf("failed to resolve course: %w", err)
	}
	student.Name = req.Name
	student.Email = req.Email
	student.Age = req.Age
	student.CourseID = &course.ID
	student.Course = course
	return nil
}

func (s *studentService) Create(ctx context.Context, req dto.StudentRequest) (*dto.StudentResponse, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	student := &models.Student{}
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.apply(ctx, student, req); err != nil {
			return err
		}
		if err := s.students.Create(ctx, student); err != nil {
			return mapStudentError(err, 0, student.Email)
		}
		return s.audit.LogEvent(ctx, ActionCreateStudent, fmt.Sprintf("Student created with ID: %d", student.ID))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", student.ID).Msg("Student created")
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

func (s *studentService) GetByID(ctx context.Context, id int64) (*dto.StudentResponse, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, mapStudentError(err, id, "")
	}
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

func (s *studentService) List(ctx context.Context, filter repositories.StudentFilter, page helpers.PageRequest) (*dto.PageResponse[dto.StudentResponse], error) {
	students, total, err := s.students.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if err := s.audit.LogEvent(ctx, ActionGetAllStudents, fmt.Sprintf("Fetched page %d of students", page.Page)); err != nil {
		return nil, err
	}

	return &dto.PageResponse[dto.StudentResponse]{
		Data: dto.NewStudentResponses(students),
		Meta: helpers.NewPageMeta(total, page),
	}, nil
}

// GroupByCourse buckets every student by course name. Groups are ordered by
// name with the course-less bucket last.
func (s *studentService) GroupByCourse(ctx context.Context) ([]dto.CourseGroupResponse, error) {
	students, err := s.students.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	index := map[string]int{}
	var groups []dto.CourseGroupResponse
	noCourse := -1
	for _, st := range students {
		name := st.CourseName()
		var pos int
		if name == nil {
			if noCourse < 0 {
				noCourse = len(groups)
				groups = append(groups, dto.CourseGroupResponse{})
			}
			pos = noCourse
		} else {
			i, ok := index[*name]
			if !ok {
				i = len(groups)
				index[*name] = i
				groups = append(groups, dto.CourseGroupResponse{CourseName: name})
			}
			pos = i
		}
		groups[pos].Students = append(groups[pos].Students, dto.NewStudentResponse(st))
	}

	sort.SliceStable(groups, func(i, j int) bool {
		a, b := groups[i].CourseName, groups[j].CourseName
		if a == nil || b == nil {
			return b == nil && a != nil
		}
		return *a < *b
	})

	if err := s.audit.LogEvent(ctx, ActionGroupByCourse, "Grouped students by course"); err != nil {
		return nil, err
	}
	if groups == nil {
		groups = []dto.CourseGroupResponse{}
	}
	return groups, nil
}

func (s *studentService) Update(ctx context.Context, id int64, req dto.StudentRequest) (*dto.StudentResponse, error) {
	req, err := s.prepare(req)
	if err != nil {
		return nil, err
	}

	var student *models.Student
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.students.GetByID(ctx, id)
		if err != nil {
			return mapStudentError(err, id, "")
		}
		if err := s.apply(ctx, existing, req); err != nil {
			return err
		}
		if err := s.students.Update(ctx, existing); err != nil {
			return mapStudentError(err, id, existing.Email)
		}
		student = existing
		return s.audit.LogEvent(ctx, ActionUpdateStudent, fmt.Sprintf("Student updated with ID: %d", id))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("studentID", id).Msg("Student updated")
	resp := dto.NewStudentResponse(student)
	return &resp, nil
}

func (s *studentService) Delete(ctx context.Context, id int64) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.students.Delete(ctx, id); err != nil {
			return mapStudentError(err, id, "")
		}
		return s.audit.LogEvent(ctx, ActionDeleteStudent, fmt.Sprintf("Student deleted with ID: %d", id))
	})
	if err != nil {
		return err
	}
	s.logger.Info().Int64("studentID", id).Msg("Student deleted")
	return nil
}
