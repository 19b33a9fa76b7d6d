package realtime

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrForbidden     = errors.New("not a member of this organization")
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotJoined     = errors.New("room not joined")
	ErrInvalidStatus = errors.New("invalid presence status")
)

// Authorizer decides whether a user may join a room
type Authorizer interface {
	AuthorizeRoom(ctx context.Context, userID uuid.UUID, room Room) error
}

type AuthorizerFunc func(ctx context.Context, userID uuid.UUID, room Room) error

func (f AuthorizerFunc) AuthorizeRoom(ctx context.Context, userID uuid.UUID, room Room) error {
	return f(ctx, userID, room)
}

// AllowAll admits every authenticated user to every room
var AllowAll Authorizer = AuthorizerFunc(func(context.Context, uuid.UUID, Room) error { return nil })
