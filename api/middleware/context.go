package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/lexbid/lexbid-backend/pkg/access"
	"github.com/lexbid/lexbid-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// ActorFromContext reassembles the authenticated actor seeded by Auth. The
// second return is false when the context has no valid identity.
func ActorFromContext(ctx context.Context) (access.Actor, bool) {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil || id == uuid.Nil {
		return access.Actor{}, false
	}
	role, err := enums.ParseActorRole(RoleFromContext(ctx))
	if err != nil {
		return access.Actor{}, false
	}
	return access.Actor{ID: id, Role: role}, true
}

// WithActor injects an identity into the context, primarily for tests.
func WithActor(ctx context.Context, actor access.Actor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, actor.ID.String())
	return context.WithValue(ctx, ctxRole, string(actor.Role))
}
