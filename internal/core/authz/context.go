package authz

import (
	"context"

	"github.com/ait-forum/forum-api/internal/core/domain"
)

type ctxKey int

const callerKey ctxKey = iota

// Caller is the identity resolved by authentication for the current request.
type Caller struct {
	Login string
	Roles domain.RoleSet
}

// WithCaller attaches the authenticated caller to the request context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

// CallerFromContext returns the caller attached by the authentication layer.
// The zero Caller means the request is unauthenticated.
func CallerFromContext(ctx context.Context) Caller {
	caller, _ := ctx.Value(callerKey).(Caller)
	return caller
}
