// Package requestctx carries request-scoped identity and routing data
// through context.Context for layers that do not see the HTTP request.
package requestctx

import "context"

const (
	// SystemUser is reported when no authenticated user is present.
	SystemUser = "system"
	// UnknownEndpoint is reported outside an HTTP request.
	UnknownEndpoint = "N/A"
)

type (
	endpointKey  struct{}
	usernameKey  struct{}
	requestIDKey struct{}
)

// WithEndpoint stores "METHOD URI" for the current request.
func WithEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey{}, endpoint)
}

// Endpoint returns the stored endpoint or UnknownEndpoint.
func Endpoint(ctx context.Context) string {
	if v, ok := ctx.Value(endpointKey{}).(string); ok && v != "" {
		return v
	}
	return UnknownEndpoint
}

// WithUsername stores the authenticated principal.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey{}, username)
}

// Username returns the authenticated principal or SystemUser.
func Username(ctx context.Context) string {
	if v, ok := ctx.Value(usernameKey{}).(string); ok && v != "" {
		return v
	}
	return SystemUser
}

// WithRequestID stores the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the correlation id, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey{}).(string)
	return v
}
