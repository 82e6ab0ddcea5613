package websocket

import (
	"context"
	"fmt"

	"github.com/studentdesk/student-api/internal/pkg/apperrors"
	"github.com/studentdesk/student-api/internal/pkg/auth"
)

// TokenVerifier is the subset of the JWT service used for CONNECT.
type TokenVerifier interface {
	ExtractUsername(token string) (string, error)
	ValidateToken(token string) (*auth.Claims, error)
}

// UserDirectory reports whether an account exists.
type UserDirectory interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}

// Authenticator resolves the principal of a STOMP CONNECT frame.
type Authenticator struct {
	tokens TokenVerifier
	users  UserDirectory
}

func NewAuthenticator(tokens TokenVerifier, users UserDirectory) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Authenticate checks a "Bearer <jwt>" header value and returns the username.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (string, error) {
	token, err := auth.ExtractBearerToken(header)
	if err != nil {
		return "", err
	}
	username, err := a.tokens.ExtractUsername(token)
	if err != nil {
		return "", err
	}
	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return "", err
	}
	if claims.Subject != username {
		return "", fmt.Errorf("%w: subject mismatch", apperrors.ErrTokenInvalid)
	}

	exists, err := a.users.ExistsByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !exists {
		return "", apperrors.ErrUserNotFound
	}
	return username, nil
}
