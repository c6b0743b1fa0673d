// internal/app/features/counts/handler.go
package counts

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	countsys "github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/events"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/sidebar"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"github.com/dalemusser/hrdesk/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// Marker records that a user completed an evaluation.
type Marker interface {
	Mark(ctx context.Context, userID, evaluationID, source string) error
}

// Handler serves the badge counts, the decorated sidebar and the event
// intake that moves counts optimistically.
type Handler struct {
	Registry *countsys.Registry
	Bus      *events.Bus
	Sidebars *sidebar.Set
	Markers  Marker // may be nil; evaluationCompleted events then skip the marker
	Errors   *uierrors.Handler
	Log      *zap.Logger
	Dev      bool // exposes GET /debug
}

func NewHandler(registry *countsys.Registry, bus *events.Bus, sidebars *sidebar.Set, markers Marker,
	errh *uierrors.Handler, logger *zap.Logger, dev bool) *Handler {
	return &Handler{
		Registry: registry,
		Bus:      bus,
		Sidebars: sidebars,
		Markers:  markers,
		Errors:   errh,
		Log:      logger,
		Dev:      dev,
	}
}

// aggregator returns the caller's aggregator, answering the request itself
// when there is none to be had.
func (h *Handler) aggregator(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, *countsys.Aggregator, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		h.Errors.Unauthorized(w, r)
		return nil, nil, false
	}
	a, err := h.Registry.For(u.ID, u.Role, u.AccessToken)
	if err != nil {
		if errors.Is(err, countsys.ErrUnknownRole) {
			h.Errors.Forbidden(w, r)
			return nil, nil, false
		}
		h.Log.Error("counts: aggregator", zap.String("user_id", u.ID), zap.Error(err))
		uierrors.Toast(w, http.StatusInternalServerError, "Counts are unavailable.")
		return nil, nil, false
	}
	return u, a, true
}

// expired reports whether err means the upstream rejected the session, and
// if so answers with the global-logout response.
func (h *Handler) expired(w http.ResponseWriter, r *http.Request, err error) bool {
	if !errors.Is(err, countsys.ErrSessionExpired) {
		return false
	}
	h.Errors.Upstream(w, r, hrapi.ErrUnauthorized, "")
	return true
}

// ServeCounts handles GET /api/counts. It runs the automatic sync, which is
// a no-op while the counts are younger than the role's staleness window.
// Partial failures are reported in the state's error field, not as an HTTP
// error.
func (h *Handler) ServeCounts(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.Log, "counts sync")
	defer cancel()

	st, err := a.Sync(ctx)
	if h.expired(w, r, err) {
		return
	}
	uierrors.OK(w, st)
}

// HandleRefresh handles POST /api/counts/refresh. It always fetches;
// ?force=true also clears the initialized flag so loading is reported.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.Log, "counts refresh")
	defer cancel()

	refresh := a.Refresh
	if query.Get(r, "force") == "true" {
		refresh = a.ForceRefresh
	}
	st, err := refresh(ctx)
	if h.expired(w, r, err) {
		return
	}
	uierrors.OK(w, st)
}

// ServeSidebar handles GET /api/sidebar: the role's navigation tree with
// badges taken from the (synced) counts.
func (h *Handler) ServeSidebar(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Refresh(), h.Log, "sidebar sync")
	defer cancel()

	st, err := a.Sync(ctx)
	if h.expired(w, r, err) {
		return
	}
	vm, ok := viewdata.NewBaseVM(r, "", st, h.Sidebars)
	if !ok {
		h.Errors.Forbidden(w, r)
		return
	}
	uierrors.OK(w, vm)
}

type debugView struct {
	Aggregator countsys.Debug `json:"aggregator"`
	Live       int            `json:"liveAggregators"`
}

// ServeDebug handles GET /api/counts/debug (dev only).
func (h *Handler) ServeDebug(w http.ResponseWriter, r *http.Request) {
	_, a, ok := h.aggregator(w, r)
	if !ok {
		return
	}
	uierrors.OK(w, debugView{Aggregator: a.Debug(), Live: h.Registry.Len()})
}
