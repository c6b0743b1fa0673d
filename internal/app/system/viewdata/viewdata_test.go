package viewdata_test

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/sidebar"
	"github.com/dalemusser/hrdesk/internal/app/system/viewdata"
	"github.com/dalemusser/hrdesk/internal/testutil"
)

func TestNewBaseVM(t *testing.T) {
	set := sidebar.NewSet()
	st := counts.State{Counts: counts.Counts{Tasks: 3}, Initialized: true}

	if _, ok := viewdata.NewBaseVM(httptest.NewRequest("GET", "/", nil), "Dashboard", st, set); ok {
		t.Error("expected false without a user")
	}

	staff := testutil.StaffUser()
	vm, ok := viewdata.NewBaseVM(testutil.NewAuthenticatedRequest("GET", "/", staff), "Dashboard", st, set)
	if !ok {
		t.Fatal("expected a view model for a staff user")
	}
	if vm.User.ID != staff.ID || vm.Counts.Tasks != 3 {
		t.Errorf("unexpected vm: %+v", vm)
	}
	var badge *int
	for _, it := range vm.Sidebar {
		if it.CountField == counts.FieldTasks {
			badge = it.Badge
		}
	}
	if badge == nil || *badge != 3 {
		t.Errorf("tasks badge = %v, want 3", badge)
	}

	raw, _ := json.Marshal(vm)
	if strings.Contains(string(raw), staff.Token) {
		t.Error("the access token must never be serialized")
	}

	odd := testutil.StaffUser()
	odd.Role = "contractor"
	if _, ok := viewdata.NewBaseVM(testutil.NewAuthenticatedRequest("GET", "/", odd), "x", st, set); ok {
		t.Error("expected false for an unknown role")
	}
}
