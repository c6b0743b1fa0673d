// internal/app/system/authz/roles.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// Normalize lowercases and trims a role name.
func Normalize(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}

// Known reports whether role is one of the dashboard roles.
func Known(role string) bool {
	switch Normalize(role) {
	case models.RoleAdmin, models.RoleHR, models.RoleStaff:
		return true
	}
	return false
}

// HasAnyRole reports whether the current request's user has any of the given roles.
// Returns false if no user is present (i.e., not signed in).
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == Normalize(want) {
			return true
		}
	}
	return false
}

// HasRole is a convenience wrapper for a single role.
func HasRole(r *http.Request, role string) bool {
	return HasAnyRole(r, role)
}

// Role returns the current user's role (lowercased) and whether a user is present.
func Role(r *http.Request) (string, bool) {
	role, _, _, ok := UserCtx(r)
	return role, ok
}
