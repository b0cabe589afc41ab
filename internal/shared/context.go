package shared

import "context"

// Actor identifies the authenticated caller for one request. It is resolved
// once by the tenant middleware and passed explicitly through context; core
// services never consult ambient global state for tenancy.
type Actor struct {
	TenantID int64
	UserID   int64
	Role     string
	Plan     string
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The boolean is false when
// no tenant middleware ran for this request.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	return actor, ok && actor.TenantID != 0
}
