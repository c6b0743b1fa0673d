// internal/app/features/attendance/handler.go
package attendance

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

type Handler struct {
	API    *hrapi.Client
	Bus    *events.Bus
	Errors *uierrors.Handler
	Log    *zap.Logger
}

func NewHandler(api *hrapi.Client, bus *events.Bus, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		API:    api,
		Bus:    bus,
		Errors: errh,
		Log:    logger,
	}
}

// HandleCheckIn handles POST /api/attendance/check-in.
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "check-in")
	defer cancel()

	rec, err := sess.CheckIn(ctx)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not check you in.")
		return
	}
	if rec.CheckedIn() {
		h.Bus.Publish(events.Event{Kind: events.AttendanceCheckedIn, UserID: u.ID})
	}
	h.Log.Info("checked in", zap.String("user_id", u.ID), zap.String("date", rec.Date))
	uierrors.OK(w, rec)
}

// HandleCheckOut handles POST /api/attendance/check-out. Checking out does
// not change any badge.
func (h *Handler) HandleCheckOut(w http.ResponseWriter, r *http.Request) {
	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "check-out")
	defer cancel()

	rec, err := sess.CheckOut(ctx)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not check you out.")
		return
	}
	h.Log.Info("checked out", zap.String("user_id", u.ID), zap.String("date", rec.Date))
	uierrors.OK(w, rec)
}
