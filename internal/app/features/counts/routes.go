// internal/app/features/counts/routes.go
package counts

import (
	"github.com/dalemusser/hrdesk/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/counts. The debug view is only mounted in dev.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeCounts)
	r.Post("/refresh", h.HandleRefresh)
	r.Post("/events", h.HandleEvent)
	if h.Dev {
		r.Get("/debug", h.ServeDebug)
	}
	return r
}

// SidebarRoutes serves /api/sidebar.
func SidebarRoutes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeSidebar)
	return r
}
