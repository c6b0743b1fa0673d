// internal/app/features/dashboard/hr.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
)

type hrDashboardData struct {
	dashboardWithCounts
	PendingReviews int `json:"pendingReviews"` // evaluations plus reports awaiting HR
}

// ServeHR renders the HR dashboard.
func (h *Handler) ServeHR(w http.ResponseWriter, r *http.Request) {
	base, ok := h.base(w, r, "HR Dashboard")
	if !ok {
		return
	}
	c := base.Counts.Counts
	data := hrDashboardData{
		dashboardWithCounts: base,
		PendingReviews:      c.Evaluations + c.Reports,
	}
	h.served(r, "hr")
	uierrors.OK(w, data)
}
