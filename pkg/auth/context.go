package auth

import (
	"context"
	"errors"
)

// UserContext carries the authenticated requester identity through a request
type UserContext struct {
	UserID string
	Email  string
	Roles  []string
}

type contextKey string

const userContextKey contextKey = "user_context"

// ErrNoUserInContext is returned when a request carries no authenticated user
var ErrNoUserInContext = errors.New("no authenticated user in context")

// SetUserInContext stores the user context in a request context
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the user context from a request context
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUserInContext
	}
	return user, nil
}
