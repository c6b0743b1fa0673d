// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/system/auditlog"
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	Registry   *counts.Registry
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, registry *counts.Registry, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		Registry:   registry,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /logout. It is safe to call without a session.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.Logout(r.Context(), r, u.ID, u.Email)
		if h.Registry != nil {
			h.Registry.Evict(u.ID)
		}
	}

	if err := h.SessionMgr.SignOut(w, r); err != nil {
		// Still answer success; the cookie may already be gone.
		h.Log.Error("logout: save session", zap.Error(err))
	}

	uierrors.OK(w, map[string]string{"redirect": "/login"})
}
