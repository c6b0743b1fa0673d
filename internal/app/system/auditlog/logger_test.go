package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/hrdesk/internal/app/store/audit"
	"github.com/dalemusser/hrdesk/internal/app/system/auditlog"
	"github.com/dalemusser/hrdesk/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	// nil logger should be a no-op (not panic)
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/login", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, "u-1", "a@example.com", "staff")
	logger.Logout(ctx, req, "u-1", "a@example.com")
	logger.SessionExpired(ctx, nil, "u-1", "count_refresh")
}

func TestLogger_LogOnlyWritesZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	logger.LoginFailed(ctx, req, "x@example.com", "invalid credentials")

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Level != zapcore.WarnLevel {
		t.Errorf("failed login should log at warn, got %v", entry.Level)
	}
	fields := entry.ContextMap()
	if fields["event_type"] != audit.EventLoginFailed {
		t.Errorf("event_type = %v", fields["event_type"])
	}
	if fields["ip"] != "10.1.2.3" {
		t.Errorf("ip = %v, want 10.1.2.3", fields["ip"])
	}
}

func TestLogger_ConfigOff(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "off"})
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger.Logout(ctx, httptest.NewRequest("POST", "/logout", nil), "u-1", "")
	if logs.Len() != 0 {
		t.Errorf("expected no log entries when config is 'off', got %d", logs.Len())
	}
}

func TestLogger_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db"})
	logger.SessionExpired(ctx, nil, "u-77", "count_refresh")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: "u-77"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != audit.EventSessionExpired {
		t.Errorf("event type = %q", events[0].EventType)
	}
	if events[0].Details["detected_by"] != "count_refresh" {
		t.Errorf("details = %v", events[0].Details)
	}
}
