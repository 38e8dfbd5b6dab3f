package middleware

import (
	"context"
	"net/http"
	"strings"

	"appraisal/internal/auth"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

// UserContext is the authenticated identity attached to the request.
type UserContext struct {
	UserID     string
	EmployeeID string
	Role       string
}

// Auth parses a bearer token when present. Invalid or absent tokens leave
// the request anonymous; RequirePermission rejects those downstream.
func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseToken(secret, parts[1])
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, UserContext{
				UserID:     claims.UserID,
				EmployeeID: claims.EmployeeID,
				Role:       claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUser(ctx context.Context) (UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(UserContext)
	return user, ok
}

// WithUser is a test helper for handlers that read the authenticated user.
func WithUser(ctx context.Context, user UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
