package auth

import "context"

type contextKey string

// ContextActorKey holds the authenticated Actor in the request context.
const ContextActorKey contextKey = "auth.actor"

// Actor is the authenticated caller as seen by every service. ShopID is set
// only for tenant users.
type Actor struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	ShopID *int64 `json:"shop_id,omitempty"`
}

func (a *Actor) HasPermission(permission string) bool {
	return a.Role.HasPermission(permission)
}

func (a *Actor) IsTenantOf(shopID int64) bool {
	return a.Role == RoleTenant && a.ShopID != nil && *a.ShopID == shopID
}

func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

func ActorFromContext(ctx context.Context) (*Actor, bool) {
	actor, ok := ctx.Value(ContextActorKey).(*Actor)
	return actor, ok
}
