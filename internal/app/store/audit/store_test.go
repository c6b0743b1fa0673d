package audit_test

import (
	"testing"
	"time"

	"github.com/dalemusser/hrdesk/internal/app/store/audit"
	"github.com/dalemusser/hrdesk/internal/testutil"
)

func TestStore_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	event := audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    "u-1001",
		Email:     "ana@example.com",
		IP:        "192.168.1.1",
		UserAgent: "TestBrowser/1.0",
		Success:   true,
	}

	if err := store.Log(ctx, event); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: "u-1001"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].ID.IsZero() {
		t.Error("expected ID to be generated")
	}
	if events[0].Timestamp.IsZero() {
		t.Error("expected Timestamp to be set")
	}
}

func TestStore_QueryFilters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("EnsureIndexes failed: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	for i, e := range []audit.Event{
		{EventType: audit.EventLoginSuccess, UserID: "u-1", Success: true},
		{EventType: audit.EventLogout, UserID: "u-1", Success: true},
		{EventType: audit.EventSessionExpired, UserID: "u-2", Success: true},
		{EventType: audit.EventLoginFailed, Email: "x@example.com", FailureReason: "invalid credentials"},
	} {
		e.Category = audit.CategoryAuth
		e.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if err := store.Log(ctx, e); err != nil {
			t.Fatalf("Log failed: %v", err)
		}
	}

	n, err := store.CountByFilter(ctx, audit.QueryFilter{UserID: "u-1"})
	if err != nil || n != 2 {
		t.Errorf("CountByFilter(u-1) = %d, %v; want 2", n, err)
	}

	recent, err := store.Query(ctx, audit.QueryFilter{Limit: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(recent) != 2 || recent[0].EventType != audit.EventLoginFailed {
		t.Errorf("Query(limit 2) returned %+v; want newest first", recent)
	}

	failed, err := store.Query(ctx, audit.QueryFilter{FailedLogins: true, StartTime: &base})
	if err != nil {
		t.Fatalf("Query(failed logins) failed: %v", err)
	}
	if len(failed) != 1 || failed[0].Email != "x@example.com" {
		t.Errorf("Query(failed logins) = %+v; want the one failure", failed)
	}
	n, err = store.CountByFilter(ctx, audit.QueryFilter{FailedLogins: true, EventType: audit.EventLoginFailedRateLimit})
	if err != nil || n != 0 {
		t.Errorf("CountByFilter(rate-limited failures) = %d, %v; want 0", n, err)
	}
}
