// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/dalemusser/hrdesk/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.With(sm.RequireRole(models.RoleAdmin, models.RoleHR)).Post("/", h.HandleCreate)
	r.Post("/{id}/complete", h.HandleComplete)
	r.Delete("/{id}", h.HandleDelete)
	return r
}
