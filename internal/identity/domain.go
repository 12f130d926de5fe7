// Package identity resolves who is acting on every request: a user account,
// its role and the fiscal it represents. Handlers and services receive this
// resolved identity explicitly; nothing here is cached across requests.
package identity

import (
	"context"
	"time"
)

// Role separates regular operators from administrators. There are no finer
// grained permissions in this system.
type Role string

const (
	RoleUsuario Role = "USUARIO"
	RoleAdmin   Role = "ADMIN"
)

// User represents an authenticated account.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	FiscalID     int64 // zero for accounts not bound to a fiscal
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the administrator role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type userContextKey struct{}

// ContextWithUser stores the resolved user in context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// UserFromContext extracts the resolved user, nil when unauthenticated.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userContextKey{}).(*User)
	return u
}
