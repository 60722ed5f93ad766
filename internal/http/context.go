package http

import "context"

type contextKey string

const actorContextKey contextKey = "actor_id"

// ContextWithActor returns a derived context containing the authenticated user id.
func ContextWithActor(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, actorContextKey, actorID)
}

// ActorFromContext extracts the authenticated user id from context if available.
func ActorFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actorContextKey).(int64)
	return id, ok && id > 0
}
