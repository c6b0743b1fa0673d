// internal/app/features/evaluations/routes.go
package evaluations

import (
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/evaluations for staff.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole(models.RoleStaff))
	r.Get("/remaining", h.ServeRemaining)
	r.Post("/{id}/complete", h.HandleComplete)
	r.Delete("/{id}/marker", h.HandleUnmark)
	return r
}
