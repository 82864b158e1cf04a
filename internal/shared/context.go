package shared

import "context"

type actorContextKey struct{}

// ContextWithActor stores the acting-user identifier in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting-user identifier from context.
// Returns an empty string when no actor was resolved.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	return actor
}
