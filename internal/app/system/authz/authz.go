// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/domain/models"
)

// UserCtx returns the user's role (lowercased), name, upstream user ID, and a
// found flag. If no user is present, or the session lacks an ID or token, it
// returns "visitor", "", "", false so ok=true always means a usable session.
func UserCtx(r *http.Request) (role string, name string, userID string, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok || user.ID == "" || user.AccessToken == "" {
		return "visitor", "", "", false
	}
	return strings.ToLower(user.Role), user.Name, user.ID, true
}

// IsAdmin reports whether the current request's user is an admin.
func IsAdmin(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleAdmin
}

// IsHR reports whether the current request's user is in HR.
func IsHR(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleHR
}

// IsStaff reports whether the current request's user is staff.
func IsStaff(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == models.RoleStaff
}

// CanManageTasks reports whether the user may create or delete tasks for others.
// Admins and HR can; staff only complete their own.
func CanManageTasks(r *http.Request) bool {
	return HasAnyRole(r, models.RoleAdmin, models.RoleHR)
}
