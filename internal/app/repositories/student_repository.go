package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/dberrors"
	"github.com/studentdesk/student-api/internal/pkg/helpers"
	"github.com/studentdesk/student-api/internal/pkg/logger"
)

// StudentEmailConstraint is the unique constraint on students.email
const StudentEmailConstraint = "students_email_key"

var studentColumns = []string{
	"s.id", "s.name", "s.email", "s.age", "s.course_id", "s.created_at", "s.updated_at",
	"c.name", "c.created_at",
}

// studentSortColumns maps API sort fields to columns.
var studentSortColumns = map[string]string{
	"id":         "s.id",
	"name":       "s.name",
	"email":      "s.email",
	"age":        "s.age",
	"createdAt":  "s.created_at",
	"updatedAt":  "s.updated_at",
	"courseName": "c.name",
}

// StudentRepository handles student database operations
type StudentRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(pool db.Querier) *StudentRepository {
	return &StudentRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *StudentRepository) selectStudents() squirrel.SelectBuilder {
	return r.sb.Select(studentColumns...).
		From("students s").
		LeftJoin("courses c ON c.id = s.course_id")
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	s := &models.Student{}
	var (
		courseName      *string
		courseCreatedAt *time.Time
	)
	if err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Age, &s.CourseID, &s.CreatedAt, &s.UpdatedAt, &courseName, &courseCreatedAt); err != nil {
		return nil, err
	}
	if s.CourseID != nil && courseName != nil {
		s.Course = &models.Course{ID: *s.CourseID, Name: *courseName}
		if courseCreatedAt != nil {
			s.Course.CreatedAt = *courseCreatedAt
		}
	}
	return s, nil
}

func collectStudents(rows pgx.Rows) ([]*models.Student, error) {
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

// Create inserts a student and fills its id and timestamps.
func (r *StudentRepository) Create(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Insert("students").
		Columns("name", "email", "age", "course_id").
		Values(s.Name, s.Email, s.Age, s.CourseID).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create student SQL")
		return fmt.Errorf("failed to build create student query: %w", err)
	}

	err = db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, StudentEmailConstraint) {
			return apperrors.ErrStudentEmailExists
		}
		logger.Error().Err(err).Str("email", s.Email).Msg("Error executing create student query")
		return fmt.Errorf("error creating student: %w", err)
	}
	return nil
}

// GetByID returns the student with its course.
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := r.selectStudents().Where(squirrel.Eq{"s.id": id}).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get student by ID SQL")
		return nil, fmt.Errorf("failed to build get student query: %w", err)
	}

	s, err := scanStudent(db.Conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		logger.Error().Err(err).Int64("studentID", id).Msg("Error scanning student row")
		return nil, fmt.Errorf("error getting student by ID: %w", err)
	}
	return s, nil
}

// List returns one page of students matching filter and the total match count.
func (r *StudentRepository) List(ctx context.Context, filter StudentFilter, page helpers.PageRequest) ([]*models.Student, int64, error) {
	conn := db.Conn(ctx, r.db)

	countSQL, countArgs, err := applySpecification(
		r.sb.Select("COUNT(*)").From("students s").LeftJoin("courses c ON c.id = s.course_id"),
		filter,
	).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building count students SQL")
		return nil, 0, fmt.Errorf("failed to build count students query: %w", err)
	}

	var total int64
	if err := conn.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		logger.Error().Err(err).Msg("Error counting students")
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	sql, args, err := applySpecification(r.selectStudents(), filter).
		OrderBy(studentOrderBy(page)...).
		Limit(page.Limit()).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list students SQL")
		return nil, 0, fmt.Errorf("failed to build list students query: %w", err)
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list students query")
		return nil, 0, fmt.Errorf("error querying students: %w", err)
	}
	students, err := collectStudents(rows)
	if err != nil {
		logger.Error().Err(err).Msg("Error scanning student rows")
		return nil, 0, fmt.Errorf("error scanning students: %w", err)
	}
	return students, total, nil
}

// studentOrderBy returns the requested order with id as a tiebreaker so
// page boundaries are stable. Unknown sort fields fall back to id.
func studentOrderBy(page helpers.PageRequest) []string {
	dir := "ASC"
	if page.SortDesc {
		dir = "DESC"
	}
	col, ok := studentSortColumns[page.SortField]
	if !ok {
		col = "s.id"
	}
	if col == "s.id" {
		return []string{"s.id " + dir}
	}
	return []string{col + " " + dir, "s.id " + dir}
}

// FindAll returns every student ordered by id.
func (r *StudentRepository) FindAll(ctx context.Context) ([]*models.Student, error) {
	sql, args, err := r.selectStudents().OrderBy("s.id ASC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building find all students SQL")
		return nil, fmt.Errorf("failed to build find all students query: %w", err)
	}

	rows, err := db.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing find all students query")
		return nil, fmt.Errorf("error querying students: %w", err)
	}
	return collectStudents(rows)
}

// Update overwrites the mutable student fields.
func (r *StudentRepository) Update(ctx context.Context, s *models.Student) error {
	sql, args, err := r.sb.Update("students").
		Set("name", s.Name).
		Set("email", s.Email).
		Set("age", s.Age).
		Set("course_id", s.CourseID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": s.ID}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building update student SQL")
		return fmt.Errorf("failed to build update student query: %w", err)
	}

	err = db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrStudentNotFound
		}
		if dberrors.IsDuplicateConstraintError(err, StudentEmailConstraint) {
			return apperrors.ErrStudentEmailExists
		}
		logger.Error().Err(err).Int64("studentID", s.ID).Msg("Error executing update student query")
		return fmt.Errorf("error updating student: %w", err)
	}
	return nil
}

// Delete removes a student by id.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	sql, args, err := r.sb.Delete("students").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building delete student SQL")
		return fmt.Errorf("failed to build delete student query: %w", err)
	}

	tag, err := db.Conn(ctx, r.db).Exec(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Int64("studentID", id).Msg("Error executing delete student query")
		return fmt.Errorf("error deleting student: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}
