package auth

import (
	"context"
	"net/http"
)

// A private key for context that only this package can access. This is important
// to prevent collisions between different context uses
var userCtxKey = &contextKey{"user"}

type contextKey struct {
	name string
}

// Middleware scopes every request to userID. There is no login: the app
// serves a single user, but handlers still read the id from the context so
// nothing downstream hardcodes it.
func Middleware(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// put it in context
			ctx := WithUser(r.Context(), userID)

			// and call the next with our new context
			r = r.WithContext(ctx)
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser returns a copy of ctx carrying userID.
func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userCtxKey, userID)
}

// ForContext finds the user id from the context. REQUIRES Middleware to have run.
func ForContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(userCtxKey).(string)
	return raw, ok && raw != ""
}
