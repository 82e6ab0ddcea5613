package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	appModels "github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/auth"
)

// Admin describes the account created on first start.
type Admin struct {
	Username string
	Password string
	FullName string
}

// UserStore is the part of the user repository the seed needs.
type UserStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, u *appModels.User) error
}

// CreateDefaultData creates the default admin account if it doesn't exist.
// Nothing is created while no admin password is configured.
func CreateDefaultData(ctx context.Context, users UserStore, admin Admin, lgr zerolog.Logger) error {
	username := strings.TrimSpace(admin.Username)
	if username == "" || admin.Password == "" {
		lgr.Info().Msg("No admin credentials configured, skipping default admin")
		return nil
	}

	exists, err := users.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("checking admin user: %w", err)
	}
	if exists {
		lgr.Info().Str("username", username).Msg("Admin user already exists, skipping creation")
		return nil
	}

	hashed, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("hashing admin password: %w", err)
	}

	user := &appModels.User{
		Username: username,
		Password: hashed,
		FullName: admin.FullName,
		Role:     appModels.RoleAdmin,
	}
	if err := users.Create(ctx, user); err != nil {
		// Another instance may have won the race.
		if errors.Is(err, apperrors.ErrUsernameAlreadyTaken) {
			return nil
		}
		return fmt.Errorf("creating admin user: %w", err)
	}

	lgr.Info().Int64("adminID", user.ID).Str("username", username).Msg("Default admin user created successfully")
	return nil
}
