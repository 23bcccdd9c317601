package auth

import (
	"context"

	"github.com/Freeeeeet/tutoring_toolbox/internal/model"
)

type callerContextKey struct{}

// ContextWithCaller attaches the authenticated caller to the context.
func ContextWithCaller(ctx context.Context, caller model.Caller) context.Context {
	caller.Roles = dedupeRoles(caller.Roles)
	return context.WithValue(ctx, callerContextKey{}, &caller)
}

// CallerFromContext extracts the authenticated caller from the context.
func CallerFromContext(ctx context.Context) (model.Caller, bool) {
	if ctx == nil {
		return model.Caller{}, false
	}
	v, ok := ctx.Value(callerContextKey{}).(*model.Caller)
	if !ok || v == nil {
		return model.Caller{}, false
	}
	return *v, true
}
