// internal/app/features/dashboard/handler.go
package dashboard

import (
	"net/http"

	uierrors "github.com/dalemusser/hrdesk/internal/app/features/errors"
	"github.com/dalemusser/hrdesk/internal/app/system/authz"
	"github.com/dalemusser/hrdesk/internal/app/system/counts"
	"github.com/dalemusser/hrdesk/internal/app/system/hrapi"
	"github.com/dalemusser/hrdesk/internal/app/system/sidebar"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"go.uber.org/zap"
)

type Handler struct {
	API      *hrapi.Client
	Registry *counts.Registry
	Sidebars *sidebar.Set
	Errors   *uierrors.Handler
	Log      *zap.Logger
}

func NewHandler(api *hrapi.Client, registry *counts.Registry, sidebars *sidebar.Set, errh *uierrors.Handler, logger *zap.Logger) *Handler {
	return &Handler{
		API:      api,
		Registry: registry,
		Sidebars: sidebars,
		Errors:   errh,
		Log:      logger,
	}
}

// ServeDashboard handles GET /dashboard and dispatches on the user's role.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, _, _, ok := authz.UserCtx(r)
	if !ok {
		h.Errors.Unauthorized(w, r)
		return
	}

	switch role {
	case models.RoleAdmin:
		h.ServeAdmin(w, r)
	case models.RoleHR:
		h.ServeHR(w, r)
	case models.RoleStaff:
		h.ServeStaff(w, r)
	default:
		h.Errors.Forbidden(w, r)
	}
}
