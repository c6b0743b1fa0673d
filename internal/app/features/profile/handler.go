// internal/app/features/profile/handler.go
package profile

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/features/shared"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/authz"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler serves the signed-in user's profile.
type Handler struct {
	API        *hrapi.Client
	SessionMgr *auth.SessionManager
	Registry   *counts.Registry
	Errors     *uierrors.Handler
	Log        *zap.Logger
}

func NewHandler(api *hrapi.Client, sessionMgr *auth.SessionManager, registry *counts.Registry, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		API:        api,
		SessionMgr: sessionMgr,
		Registry:   registry,
		Errors:     errh,
		Log:        logger,
	}
}

// ServeProfile handles GET /profile. It fetches the profile upstream,
// refreshes the cached name, email and role in the session, and returns it.
// A role change moves the user onto the matching count profile.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	u, sess, err := shared.Upstream(r, h.API)
	if err != nil {
		h.Errors.Upstream(w, r, err, "")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Upstream(), h.Log, "profile")
	defer cancel()

	p, err := sess.Profile(ctx)
	if err != nil {
		h.Errors.Upstream(w, r, err, "Could not load your profile.")
		return
	}

	if err := h.SessionMgr.UpdateProfile(w, r, p); err != nil {
		h.Log.Warn("profile: session not updated", zap.String("user_id", u.ID), zap.Error(err))
	}

	if p.Role != "" && p.Role != u.Role && authz.Known(p.Role) && h.Registry != nil {
		if _, err := h.Registry.For(u.ID, p.Role, u.AccessToken); err != nil {
			h.Log.Warn("profile: count aggregator not replaced", zap.String("user_id", u.ID), zap.Error(err))
		}
	}

	h.Log.Debug("profile served", zap.String("user_id", u.ID))
	uierrors.OK(w, p)
}
