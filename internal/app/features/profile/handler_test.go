package profile_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/profile"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/dalemusser/hrdesk/internal/testutil"
	"go.uber.org/zap"
)

const profilePath = "/api/v1/auth/profile"

func newHandler(t *testing.T) (*profile.Handler, *testutil.FakeAPI, *auth.SessionManager, *counts.Registry) {
	t.Helper()
	logger := zap.NewNop()
	api := testutil.NewFakeAPI(t)
	client, err := hrapi.New(hrapi.Config{BaseURL: api.URL(), Timeout: 2 * time.Second}, logger)
	if err != nil {
		t.Fatalf("hrapi.New: %v", err)
	}
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-32", "", "hrdesk-test", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	registry := counts.NewRegistry(counts.RegistryConfig{Client: client}, logger)
	t.Cleanup(registry.Close)
	return profile.NewHandler(client, sm, registry, uierrors.NewHandler(sm, logger), logger), api, sm, registry
}

func TestServeProfile_ReturnsUpstreamProfile(t *testing.T) {
	h, api, _, _ := newHandler(t)
	staff := testutil.StaffUser()
	api.OK(http.MethodGet, profilePath, map[string]any{
		"id": staff.ID, "fullName": "Renamed Staff", "email": staff.Email, "role": "staff", "department": "Ops",
	})

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", staff))

	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Data models.User `json:"data"`
	}
	rec.DecodeJSON(t, &body)
	if body.Data.FullName != "Renamed Staff" || body.Data.Department != "Ops" {
		t.Errorf("unexpected profile: %+v", body.Data)
	}
	if got := api.LastAuthorization(); got != "Bearer "+staff.Token {
		t.Errorf("Authorization: got %q", got)
	}
}

func TestServeProfile_RoleChangeSwapsAggregator(t *testing.T) {
	h, api, _, registry := newHandler(t)
	staff := testutil.StaffUser()
	if _, err := registry.For(staff.ID, models.RoleStaff, staff.Token); err != nil {
		t.Fatalf("registry.For: %v", err)
	}
	api.OK(http.MethodGet, profilePath, map[string]any{"id": staff.ID, "role": "HR"})

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", staff))

	rec.AssertStatus(t, http.StatusOK)
	a, ok := registry.Lookup(staff.ID)
	if !ok || a.Role() != models.RoleHR {
		t.Errorf("expected an hr aggregator, got %v", a)
	}
}

func TestServeProfile_UnauthorizedIsGlobalLogout(t *testing.T) {
	h, api, sm, _ := newHandler(t)
	api.Fail(http.MethodGet, profilePath, http.StatusUnauthorized, "jwt expired")

	var expired int
	sm.OnExpire(func(context.Context, auth.SessionUser) { expired++ })

	rec := testutil.NewRecorder()
	h.ServeProfile(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/profile", testutil.StaffUser()))

	rec.AssertStatus(t, http.StatusUnauthorized)
	rec.AssertContains(t, uierrors.SessionExpiredMessage)
	if expired != 1 {
		t.Errorf("expire hooks ran %d times, want 1", expired)
	}
}
