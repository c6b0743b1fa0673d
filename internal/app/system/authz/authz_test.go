package authz_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/authz"
)

func reqWithRole(role string) *auth.SessionUser {
	return &auth.SessionUser{ID: "u-7", Name: "Pat", Role: role, AccessToken: "jwt"}
}

func TestUserCtx_NoUser(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)

	role, name, id, ok := authz.UserCtx(req)
	if ok {
		t.Error("expected ok=false without a user")
	}
	if role != "visitor" || name != "" || id != "" {
		t.Errorf("unexpected values: %q %q %q", role, name, id)
	}
}

func TestUserCtx_MissingToken_FailsClosed(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, &auth.SessionUser{ID: "u-7", Role: "admin"})

	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false when the session has no access token")
	}
}

func TestUserCtx_LowercasesRole(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	req = auth.WithTestUser(req, reqWithRole("HR"))

	role, name, id, ok := authz.UserCtx(req)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if role != "hr" || name != "Pat" || id != "u-7" {
		t.Errorf("unexpected values: %q %q %q", role, name, id)
	}
}

func TestRolePredicates(t *testing.T) {
	tests := []struct {
		role                   string
		admin, hr, staff, task bool
	}{
		{"admin", true, false, false, true},
		{"hr", false, true, false, true},
		{"staff", false, false, true, false},
		{"guest", false, false, false, false},
	}

	for _, tc := range tests {
		t.Run(tc.role, func(t *testing.T) {
			req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), reqWithRole(tc.role))
			if got := authz.IsAdmin(req); got != tc.admin {
				t.Errorf("IsAdmin: got %v, want %v", got, tc.admin)
			}
			if got := authz.IsHR(req); got != tc.hr {
				t.Errorf("IsHR: got %v, want %v", got, tc.hr)
			}
			if got := authz.IsStaff(req); got != tc.staff {
				t.Errorf("IsStaff: got %v, want %v", got, tc.staff)
			}
			if got := authz.CanManageTasks(req); got != tc.task {
				t.Errorf("CanManageTasks: got %v, want %v", got, tc.task)
			}
		})
	}
}

func TestHasAnyRole(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), reqWithRole("Staff"))

	if !authz.HasAnyRole(req, "admin", " staff ") {
		t.Error("expected HasAnyRole to match trimmed, case-folded role")
	}
	if authz.HasRole(req, "hr") {
		t.Error("expected HasRole(hr) to be false for staff")
	}
	if role, ok := authz.Role(req); !ok || role != "staff" {
		t.Errorf("Role: got %q,%v", role, ok)
	}
}

func TestKnown(t *testing.T) {
	for _, r := range []string{"admin", " HR ", "Staff"} {
		if !authz.Known(r) {
			t.Errorf("expected %q to be known", r)
		}
	}
	if authz.Known("superadmin") {
		t.Error("superadmin is not a dashboard role")
	}
}
