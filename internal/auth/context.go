// Package auth carries the authenticated user through request contexts and
// holds the password rules for accounts.
package auth

import "context"

type contextKey struct{}

// AuthContext identifies the user and session behind a request.
type AuthContext struct {
	UserID    int64
	SessionID int64
	Token     string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// UserID is the authenticated user, or 0 outside RequireAuth.
func UserID(ctx context.Context) int64 {
	ac, _ := FromContext(ctx)
	return ac.UserID
}

// SessionID is the session used to authenticate, or 0 outside RequireAuth.
func SessionID(ctx context.Context) int64 {
	ac, _ := FromContext(ctx)
	return ac.SessionID
}
