package auth

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

// UserIDKey is the gin and request-context key holding the caller's uuid.UUID
const UserIDKey contextKey = "user_id"

// WithUserID returns ctx carrying the authenticated user id
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// UserIDFromContext returns the authenticated user id set by the auth middleware
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
