package auth

import (
	"context"

	"github.com/google/uuid"
)

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// Actor is the authenticated identity attached to a request.
type Actor struct {
	ID    uuid.UUID
	Email string
	Name  string
	Role  string
}

// IsStaff reports whether the actor belongs to clinic staff.
func (a Actor) IsStaff() bool {
	return a.Role == RoleAdmin
}

type contextKey string

const actorKey contextKey = "actor"

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey, a)
}

// ActorFromContext returns the authenticated actor. The second return value
// is false when the request was not authenticated.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorKey).(Actor)
	return a, ok
}
