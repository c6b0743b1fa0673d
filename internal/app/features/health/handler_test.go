package health_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/hrdesk/internal/app/features/health"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/testutil"
	"go.uber.org/zap"
)

type healthBody struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Upstream string `json:"upstream"`
}

func TestServe_DatabaseConnected(t *testing.T) {
	// Set up a test database to get a connected client
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	api.Raw(http.MethodGet, "/", http.StatusOK, `ok`)
	client, err := hrapi.New(hrapi.Config{BaseURL: api.URL()}, zap.NewNop())
	if err != nil {
		t.Fatalf("hrapi.New: %v", err)
	}
	handler := health.NewHandler(db.Client(), client, zap.NewNop())

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	handler.Serve(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Verify content type
	contentType := rec.Header().Get("Content-Type")
	if contentType != "application/json" {
		t.Errorf("Content-Type: got %q, want %q", contentType, "application/json")
	}

	var response healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("status: got %q, want %q", response.Status, "ok")
	}
	if response.Database != "connected" {
		t.Errorf("database: got %q, want %q", response.Database, "connected")
	}
	if response.Upstream != "reachable" {
		t.Errorf("upstream: got %q, want %q", response.Upstream, "reachable")
	}
}

func TestServe_UpstreamDownStillHealthy(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	api.Raw(http.MethodGet, "/", http.StatusBadGateway, `bad gateway`)
	client, err := hrapi.New(hrapi.Config{BaseURL: api.URL()}, zap.NewNop())
	if err != nil {
		t.Fatalf("hrapi.New: %v", err)
	}
	handler := health.NewHandler(db.Client(), client, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Serve(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var response healthBody
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response.Upstream != "unreachable" {
		t.Errorf("upstream: got %q, want %q", response.Upstream, "unreachable")
	}
}
