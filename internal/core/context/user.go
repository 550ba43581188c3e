// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// UserContext contains the authenticated analyst's identity.
type UserContext struct {
	UserID   string
	Username string
	Email    string
	Role     string
	IsAdmin  bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns user ID from context or empty string.
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// GetUsername returns the login name from context or "system" when the
// mutation did not originate from a request (sync worker, seed, CLI).
func GetUsername(ctx context.Context) string {
	if u := GetUser(ctx); u != nil && u.Username != "" {
		return u.Username
	}
	return "system"
}

// IsAdmin reports whether the context user has the admin role.
func IsAdmin(ctx context.Context) bool {
	if u := GetUser(ctx); u != nil {
		return u.IsAdmin
	}
	return false
}
