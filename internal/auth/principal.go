package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/craftedby/marketplace/internal/model"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID uuid.UUID
	Role   model.Role
}

type ctxKey struct{}

// NewContext returns a copy of ctx carrying the principal.
func NewContext(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext extracts the principal from ctx.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}

// CanAccessOrder reports whether the principal may view the given order.
// Owners and admins may; everyone else may not.
func CanAccessOrder(p Principal, order model.Order) bool {
	return order.UserID == p.UserID || p.Role == model.RoleAdmin
}

// CanFilterByArtisan reports whether the principal may request data scoped
// to the given artisan. Artisans may query themselves; admins may query
// anyone.
func CanFilterByArtisan(p Principal, artisanID uuid.UUID) bool {
	return p.UserID == artisanID || p.Role == model.RoleAdmin
}
