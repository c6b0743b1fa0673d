package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Upstream: 3 * time.Second})

	got := Current()
	if got.Upstream != 3*time.Second {
		t.Errorf("Upstream = %v, want 3s", got.Upstream)
	}
	if got.Ping != DefaultPing || got.Store != DefaultStore || got.Refresh != DefaultRefresh {
		t.Errorf("untouched values changed: %+v", got)
	}
}

func TestConfigureFromEnv(t *testing.T) {
	t.Cleanup(Reset)
	t.Setenv("HRDESK_TIMEOUT_REFRESH", "45s")
	t.Setenv("HRDESK_TIMEOUT_STORE", "nonsense")
	t.Setenv("HRDESK_TIMEOUT_PING", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Fatalf("ConfigureFromEnv() = %d, want 1", n)
	}
	if Refresh() != 45*time.Second {
		t.Errorf("Refresh() = %v, want 45s", Refresh())
	}
	if Store() != DefaultStore {
		t.Errorf("Store() = %v, want default", Store())
	}
	if Ping() != DefaultPing {
		t.Errorf("Ping() = %v, want default", Ping())
	}
}

func TestWithTimeout_LogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "count refresh")
	<-ctx.Done()
	cancel()

	if logs.Len() != 1 {
		t.Fatalf("got %d log entries, want 1", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["operation"]; got != "count refresh" {
		t.Errorf("operation field = %v", got)
	}
}

func TestWithTimeout_QuietOnCancel(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "noop")
	cancel()
	if logs.Len() != 0 {
		t.Errorf("got %d log entries, want 0", logs.Len())
	}
}
