package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/studentdesk/student-api/internal/app/models"
	"github.com/studentdesk/student-api/internal/app/models/dto"
	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/auth"
	"github.com/studentdesk/student-api/internal/pkg/validation"
)

// UserRepository is the user persistence the services need
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
}

// PresenceChecker reports whether a user has a live chat session
type PresenceChecker interface {
	IsOnline(username string) bool
}

// TokenIssuer signs access tokens
type TokenIssuer interface {
	GenerateToken(username, role string) (string, int, error)
}

// UserService defines registration, login and profile operations
type UserService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, username string) (*dto.UserResponse, error)
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
}

type userService struct {
	users     UserRepository
	audit     AuditService
	presence  PresenceChecker
	tokens    TokenIssuer
	validator *validation.Validator
	logger    zerolog.Logger

	hashPassword  func(string) (string, error)
	checkPassword func(hash, password string) bool
}

// NewUserService creates a new UserService
func NewUserService(
	users UserRepository,
	audit AuditService,
	presence PresenceChecker,
	tokens TokenIssuer,
	validator *validation.Validator,
	logger zerolog.Logger,
) UserService {
	return &userService{
		users:         users,
		audit:         audit,
		presence:      presence,
		tokens:        tokens,
		validator:     validator,
		logger:        logger,
		hashPassword:  auth.HashPassword,
		checkPassword: auth.CheckPassword,
	}
}

func usernameTaken(username string) error {
	return apperrors.NewCustomError(apperrors.ErrUsernameAlreadyTaken, "Username is already taken: "+username)
}

func (s *userService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UserResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, usernameTaken(req.Username)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: req.Username,
		Password: hash,
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.ParseRole(req.Role),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperrors.ErrUsernameAlreadyTaken) {
			return nil, usernameTaken(req.Username)
		}
		return nil, err
	}

	if err := s.audit.LogEvent(ctx, ActionRegisterUser, fmt.Sprintf("User registered: %s (%s)", user.Username, user.Role)); err != nil {
		s.logger.Warn().Err(err).Str("username", user.Username).Msg("Registration not audited")
	}

	s.logger.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("User registered")
	resp := dto.NewUserResponse(user, s.presence.IsOnline(user.Username))
	return &resp, nil
}

func (s *userService) Login(ctx context.Context, req dto.LoginRequest) (*dto.TokenResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Debug().Str("username", req.Username).Msg("Login for unknown user")
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid username or password")
		}
		return nil, err
	}
	if !s.checkPassword(user.Password, req.Password) {
		s.logger.Debug().Str("username", user.Username).Msg("Login with wrong password")
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid username or password")
	}

	token, expiresIn, err := s.tokens.GenerateToken(user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info().Str("username", user.Username).Msg("User logged in")
	return &dto.TokenResponse{Token: token, TokenType: "Bearer", ExpiresIn: expiresIn}, nil
}

func (s *userService) GetCurrentUser(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := dto.NewUserResponse(user, s.presence.IsOnline(user.Username))
	return &resp, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, dto.NewUserResponse(u, s.presence.IsOnline(u.Username)))
	}
	return result, nil
}
