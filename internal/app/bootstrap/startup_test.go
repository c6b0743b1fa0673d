package bootstrap

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/hrdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig(apiURL string) AppConfig {
	return AppConfig{
		MongoURI:             "mongodb://localhost:27017",
		MongoDatabase:        "hrdesk_test",
		SessionKey:           "test-session-key-for-testing-only-32",
		SessionName:          "hrdesk-test",
		SessionMaxAge:        time.Hour,
		APIBaseURL:           apiURL,
		APITimeout:           2 * time.Second,
		AdminRefreshInterval: 30 * time.Second,
		HRRefreshInterval:    30 * time.Second,
		StaffRefreshInterval: 5 * time.Minute,
		CountPollInterval:    time.Hour,
		AggregatorIdleTTL:    30 * time.Minute,
		MarkerPruneInterval:  time.Hour,
		LoginRateLimit:       10,
		AuditLogAuth:         "log",
	}
}

func TestValidateAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"defaults are valid", func(*AppConfig) {}, ""},
		{"relative api url", func(c *AppConfig) { c.APIBaseURL = "/api" }, "api_base_url"},
		{"non-http api url", func(c *AppConfig) { c.APIBaseURL = "ftp://hr.example.com" }, "api_base_url"},
		{"zero staff interval", func(c *AppConfig) { c.StaffRefreshInterval = 0 }, "staff_refresh_interval"},
		{"negative poll interval", func(c *AppConfig) { c.CountPollInterval = -time.Second }, "count_poll_interval"},
		{"negative marker ttl", func(c *AppConfig) { c.MarkerTTL = -time.Hour }, "marker_ttl"},
		{"marker ttl without interval", func(c *AppConfig) {
			c.MarkerTTL = time.Hour
			c.MarkerPruneInterval = 0
		}, "marker_prune_interval"},
		{"unknown audit mode", func(c *AppConfig) { c.AuditLogAuth = "verbose" }, "audit_log_auth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig("https://hr.example.com")
			tt.mutate(&cfg)
			err := validateAppConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestBuildHandler_BeforeStartup(t *testing.T) {
	svcMu.Lock()
	svc = nil
	svcMu.Unlock()

	_, err := BuildHandler(nil, AppConfig{}, DBDeps{}, testLogger())
	assert.Error(t, err)
}

func newTestServices(t *testing.T) (*services, DBDeps, *testutil.FakeAPI) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	s, err := newServices(testAppConfig(api.URL()), deps, false, testLogger())
	require.NoError(t, err)
	t.Cleanup(s.Registry.Close)
	return s, deps, api
}

func TestBuildRouter_Routes(t *testing.T) {
	s, deps, _ := newTestServices(t)
	h := buildRouter(s, deps, testLogger())

	tests := []struct {
		name         string
		method, path string
		wantStatus   int
		wantBody     string
	}{
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, `"success":false`},
		{"wrong method", http.MethodDelete, "/login", http.StatusMethodNotAllowed, `"success":false`},
		{"counts need a session", http.MethodGet, "/api/counts", http.StatusUnauthorized, ""},
		{"sidebar needs a session", http.MethodGet, "/api/sidebar", http.StatusUnauthorized, ""},
		{"dashboard needs a session", http.MethodGet, "/dashboard", http.StatusUnauthorized, ""},
		{"logout without a session", http.MethodPost, "/logout", http.StatusOK, `"/login"`},
		{"audit needs a session", http.MethodGet, "/api/audit", http.StatusUnauthorized, ""},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewRequest(tt.method, tt.path))
			rec.AssertStatus(t, tt.wantStatus)
			if tt.wantBody != "" {
				rec.AssertContains(t, tt.wantBody)
			}
		})
	}
}

func TestBuildRouter_DebugOnlyInDev(t *testing.T) {
	s, deps, _ := newTestServices(t)
	user := testutil.AdminUser()

	rec := testutil.NewRecorder()
	buildRouter(s, deps, testLogger()).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/counts/debug", user))
	assert.NotEqual(t, http.StatusOK, rec.Code, "debug endpoint must not exist outside dev")

	s.Dev = true
	rec = testutil.NewRecorder()
	buildRouter(s, deps, testLogger()).ServeHTTP(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/api/counts/debug", user))
	rec.AssertStatus(t, http.StatusOK)
}

func TestStartupShutdown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	api := testutil.NewFakeAPI(t)
	appCfg := testAppConfig(api.URL())
	appCfg.MarkerTTL = time.Hour

	s, err := newServices(appCfg, DBDeps{MongoDatabase: db}, false, testLogger())
	require.NoError(t, err)
	s.start(appCfg, testLogger())
	assert.Len(t, s.stoppers, 3)

	svcMu.Lock()
	svc = s
	svcMu.Unlock()

	// MongoClient is left nil so the shared test client stays connected.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, Shutdown(ctx, nil, appCfg, DBDeps{}, testLogger()))

	_, err = current()
	assert.Error(t, err)
	assert.Empty(t, s.stoppers)
}

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	require.NoError(t, EnsureSchema(ctx, nil, AppConfig{}, deps, testLogger()))
	// Idempotent.
	require.NoError(t, EnsureSchema(ctx, nil, AppConfig{}, deps, testLogger()))

	names, err := db.ListCollectionNames(ctx, map[string]any{})
	require.NoError(t, err)
	joined := strings.Join(names, ",")
	for _, want := range []string{"completion_markers", "submission_history", "audit_events"} {
		assert.Contains(t, joined, want)
	}
}
