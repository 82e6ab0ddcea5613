package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/db"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/dberrors"
	"github.com/studentdesk/student-api/internal/pkg/logger"
)

// UsernameConstraint is the unique constraint on users.username
const UsernameConstraint = "users_username_key"

var userColumns = []string{"id", "username", "password", "full_name", "role", "created_at"}

// UserRepository handles user database operations
type UserRepository struct {
	db db.Querier
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool db.Querier) *UserRepository {
	return &UserRepository{
		db: pool,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	var role string
	if err := row.Scan(&u.ID, &u.Username, &u.Password, &u.FullName, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.RoleType(role)
	return u, nil
}

// Create inserts a user; a taken username yields ErrUsernameAlreadyTaken.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	sql, args, err := r.sb.Insert("users").
		Columns("username", "password", "full_name", "role").
		Values(u.Username, u.Password, u.FullName, string(u.Role)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building create user SQL")
		return fmt.Errorf("failed to build create user query: %w", err)
	}

	if err := db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&u.ID, &u.CreatedAt); err != nil {
		if dberrors.IsDuplicateConstraintError(err, UsernameConstraint) {
			return apperrors.ErrUsernameAlreadyTaken
		}
		logger.Error().Err(err).Str("username", u.Username).Msg("Error executing create user query")
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").Where(where).Limit(1).ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get user SQL")
		return nil, fmt.Errorf("failed to build get user query: %w", err)
	}

	u, err := scanUser(db.Conn(ctx, r.db).QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		logger.Error().Err(err).Msg("Error scanning user row")
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	return u, nil
}

// GetByUsername returns the user with the exact username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// ExistsByUsername reports whether the username is taken.
func (r *UserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	sql, args, err := r.sb.Select("1").Prefix("SELECT EXISTS(").
		From("users").Where(squirrel.Eq{"username": username}).
		Suffix(")").ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build exists user query: %w", err)
	}

	var exists bool
	if err := db.Conn(ctx, r.db).QueryRow(ctx, sql, args...).Scan(&exists); err != nil {
		logger.Error().Err(err).Str("username", username).Msg("Error checking username existence")
		return false, fmt.Errorf("error checking username: %w", err)
	}
	return exists, nil
}

// List returns every user ordered by username.
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	sql, args, err := r.sb.Select(userColumns...).From("users").OrderBy("username ASC").ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building list users SQL")
		return nil, fmt.Errorf("failed to build list users query: %w", err)
	}

	rows, err := db.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Msg("Error executing list users query")
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
