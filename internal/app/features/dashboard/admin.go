// internal/app/features/dashboard/admin.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
)

type adminDashboardData struct {
	dashboardWithCounts
	NeedsAttention int `json:"needsAttention"` // pending tasks, evaluations and reports
}

// ServeAdmin renders the administrator dashboard.
func (h *Handler) ServeAdmin(w http.ResponseWriter, r *http.Request) {
	base, ok := h.base(w, r, "Admin Dashboard")
	if !ok {
		return
	}
	c := base.Counts.Counts
	data := adminDashboardData{
		dashboardWithCounts: base,
		NeedsAttention:      c.Tasks + c.Evaluations + c.Reports,
	}
	h.served(r, "admin")
	uierrors.OK(w, data)
}
