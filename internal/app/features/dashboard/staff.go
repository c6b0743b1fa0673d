// internal/app/features/dashboard/staff.go
package dashboard

import (
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"go.uber.org/zap"
)

type staffDashboardData struct {
	dashboardWithCounts
	Today     *models.AttendanceRecord `json:"today,omitempty"`
	CheckedIn bool                     `json:"checkedIn"`
}

// ServeStaff renders a staff member's dashboard: their counts plus today's
// attendance record. A failed attendance lookup leaves the widget empty.
func (h *Handler) ServeStaff(w http.ResponseWriter, r *http.Request) {
	base, ok := h.base(w, r, "My Dashboard")
	if !ok {
		return
	}
	data := staffDashboardData{dashboardWithCounts: base}

	_, sess, err := shared.Upstream(r, h.API)
	if err == nil {
		ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "dashboard attendance")
		data.Today, err = sess.TodayAttendance(ctx)
		cancel()
	}
	switch {
	case errors.Is(err, hrapi.ErrUnauthorized), errors.Is(err, hrapi.ErrNoToken):
		h.Errors.Upstream(w, r, err, "")
		return
	case err != nil:
		h.Log.Warn("dashboard: attendance unavailable", zap.String("user_id", data.User.ID), zap.Error(err))
		data.Today = nil
	}
	data.CheckedIn = data.Today != nil && data.Today.CheckedIn()

	h.served(r, "staff")
	uierrors.OK(w, data)
}
