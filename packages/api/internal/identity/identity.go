// Package identity carries the already authenticated caller through a request.
// Authentication happens upstream; this package only reads its result.
package identity

import (
	"context"
	"errors"
	"slices"
	"strings"
)

type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleUser    Role = "User"
)

var ErrForbidden = errors.New("forbidden")

type User struct {
	Email string `json:"email"`
	Roles []Role `json:"roles"`
}

// System is the identity used by scheduled work.
var System = User{Email: "system", Roles: []Role{RoleAdmin}}

func (u User) HasRole(role Role) bool {
	return slices.Contains(u.Roles, role)
}

func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// CanApprove covers approving and denying lease requests.
func (u User) CanApprove() bool {
	return u.HasRole(RoleAdmin) || u.HasRole(RoleManager)
}

// CanActOn reports whether u may operate on a lease owned by owner.
func (u User) CanActOn(owner string) bool {
	return u.CanApprove() || strings.EqualFold(u.Email, owner)
}

func ParseRoles(raw string) []Role {
	roles := make([]Role, 0)
	for part := range strings.SplitSeq(raw, ",") {
		part = strings.TrimSpace(part)
		for _, known := range []Role{RoleAdmin, RoleManager, RoleUser} {
			if strings.EqualFold(part, string(known)) && !slices.Contains(roles, known) {
				roles = append(roles, known)
			}
		}
	}

	return roles
}

type ctxKey struct{}

func WithUser(ctx context.Context, user User) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

func FromContext(ctx context.Context) (User, bool) {
	user, ok := ctx.Value(ctxKey{}).(User)

	return user, ok
}
