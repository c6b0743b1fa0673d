// internal/app/features/attendance/routes.go
package attendance

import (
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Post("/check-in", h.HandleCheckIn)
	r.Post("/check-out", h.HandleCheckOut)
	return r
}
