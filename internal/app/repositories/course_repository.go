package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/logger"
)

// CourseRepository handles course database operations
type CourseRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(pool db.Querier) *CourseRepository {
	return &CourseRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetOrCreate returns the course whose name matches ignoring case, creating
// it when absent. Concurrent callers converge on a single row through the
// unique index on LOWER(name).
func (r *CourseRepository) GetOrCreate(ctx context.Context, name string) (*models.Course, error) {
	name = strings.TrimSpace(name)
	sql, args, err := r.sb.Insert("courses").
		Columns("name").
		Values(name).
		Suffix("ON CONFLICT ((LOWER(name))) DO UPDATE SET name = courses.name RETURNING id, name, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get-or-create course SQL")
		return nil, fmt.Errorf("failed to build get-or-create course query: %w", err)
	}

	c := &models.Course{}
	if err := db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
		logger.Error().Err(err).Str("course", name).Msg("Error executing get-or-create course query")
		return nil, fmt.Errorf("error resolving course: %w", err)
	}
	return c, nil
}
