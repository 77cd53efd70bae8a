package middleware

import "context"

type ContextKey string

const (
	UserIDCtxKey ContextKey = "user_id"
	RoleCtxKey   ContextKey = "role"
	EmailCtxKey  ContextKey = "email"
)

// UserIDFromContext returns the authenticated user id, or "" for anonymous
// requests.
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(UserIDCtxKey).(string)
	return id
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(RoleCtxKey).(string)
	return role
}

func EmailFromContext(ctx context.Context) string {
	email, _ := ctx.Value(EmailCtxKey).(string)
	return email
}
