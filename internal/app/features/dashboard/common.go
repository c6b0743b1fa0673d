// internal/app/features/dashboard/common.go
package dashboard

import (
	"errors"
	"net/http"

	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/sidebar"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/hrdesk/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// card is one count tile on a dashboard. It mirrors a badge-bearing sidebar
// entry so the two always agree.
type card struct {
	Key   string       `json:"key"`
	Label string       `json:"label"`
	Path  string       `json:"path"`
	Field counts.Field `json:"field"`
	Count int          `json:"count"`
}

// cards flattens the badge-bearing entries of a decorated sidebar.
func cards(items []sidebar.Item, c counts.Counts) []card {
	var out []card
	for _, it := range items {
		if it.CountField != "" && it.Path != "" {
			out = append(out, card{Key: it.Key, Label: it.Label, Path: it.Path, Field: it.CountField, Count: c.Get(it.CountField)})
		}
		out = append(out, cards(it.Children, c)...)
	}
	return out
}

// dashboardWithCounts is the payload shared by every role's dashboard.
type dashboardWithCounts struct {
	viewdata.BaseVM
	Cards []card `json:"cards"`
}

// base syncs the caller's counts and builds the shared payload. It answers
// the request itself and returns false when the dashboard cannot be served.
func (h *Handler) base(w http.ResponseWriter, r *http.Request, title string) (dashboardWithCounts, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Unauthorized(w, r)
		return dashboardWithCounts{}, false
	}
	a, err := h.Registry.For(u.ID, u.Role, u.AccessToken)
	if err != nil {
		h.Errors.Forbidden(w, r)
		return dashboardWithCounts{}, false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.Log, "dashboard counts")
	defer cancel()
	st, err := a.Sync(ctx)
	if errors.Is(err, counts.ErrSessionExpired) {
		h.Errors.Upstream(w, r, hrapi.ErrUnauthorized, "")
		return dashboardWithCounts{}, false
	}

	vm, ok := viewdata.NewBaseVM(r, title, st, h.Sidebars)
	if !ok {
		h.Errors.Forbidden(w, r)
		return dashboardWithCounts{}, false
	}
	return dashboardWithCounts{BaseVM: vm, Cards: cards(vm.Sidebar, st.Counts)}, true
}

// served logs a dashboard view; only called once base has succeeded.
func (h *Handler) served(r *http.Request, view string) {
	u, _ := auth.CurrentUser(r)
	h.Log.Debug("dashboard served", zap.String("view", view), zap.String("user_id", u.ID))
}
