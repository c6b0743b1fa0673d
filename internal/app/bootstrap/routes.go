// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	attendancefeature "github.com/dalemusser/hrdesk/internal/app/features/attendance"
	auditlogfeature "github.com/dalemusser/hrdesk/internal/app/features/auditlog"
	countsfeature "github.com/dalemusser/hrdesk/internal/app/features/counts"
	dashboardfeature "github.com/dalemusser/hrdesk/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/hrdesk/internal/app/features/errors"
	evaluationsfeature "github.com/dalemusser/hrdesk/internal/app/features/evaluations"
	healthfeature "github.com/dalemusser/hrdesk/internal/app/features/health"
	loginfeature "github.com/dalemusser/hrdesk/internal/app/features/login"
	logoutfeature "github.com/dalemusser/hrdesk/internal/app/features/logout"
	profilefeature "github.com/dalemusser/hrdesk/internal/app/features/profile"
	tasksfeature "github.com/dalemusser/hrdesk/internal/app/features/tasks"
	"github.com/dalemusser/hrdesk/internal/app/system/metrics"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// the Startup hook have completed. hrdesk mounts the JSON features the
// browser shell talks to: sign-in, dashboards, badge counts, and the page
// actions whose events keep the badges current.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	s, err := current()
	if err != nil {
		logger.Error("handler built before startup", zap.Error(err))
		return nil, err
	}
	return buildRouter(s, deps, logger), nil
}

func buildRouter(s *services, deps DBDeps, logger *zap.Logger) chi.Router {
	sm := s.Sessions
	errh := errorsfeature.NewHandler(sm, logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	// This makes the current user available to all handlers via auth.CurrentUser(r).
	r.Use(sm.LoadSessionUser)

	// JSON 404/405; set before mounting so subrouters inherit them.
	r.NotFound(errh.NotFound)
	r.MethodNotAllowed(errh.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, s.API, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	r.Handle("/metrics", metrics.Handler(s.Gatherer))

	// Authentication
	loginHandler := loginfeature.NewHandler(s.API, sm, s.Registry, s.Limiter, s.Audit, errh, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sm, s.Registry, s.Audit, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	profileHandler := profilefeature.NewHandler(s.API, sm, s.Registry, errh, logger)
	r.Mount("/profile", profilefeature.Routes(profileHandler, sm))

	// Role-based dashboards
	dashboardHandler := dashboardfeature.NewHandler(s.API, s.Registry, s.Sidebars, errh, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sm))

	// Badge counts and the decorated sidebar
	countsHandler := countsfeature.NewHandler(s.Registry, s.Bus, s.Sidebars, s.Completions, errh, logger, s.Dev)
	r.Mount("/api/counts", countsfeature.Routes(countsHandler, sm))
	r.Mount("/api/sidebar", countsfeature.SidebarRoutes(countsHandler, sm))

	// Page actions that publish count events
	evaluationsHandler := evaluationsfeature.NewHandler(s.API, s.Completions, s.Bus, errh, logger)
	r.Mount("/api/evaluations", evaluationsfeature.Routes(evaluationsHandler, sm))

	tasksHandler := tasksfeature.NewHandler(s.API, s.Bus, errh, logger)
	r.Mount("/api/tasks", tasksfeature.Routes(tasksHandler, sm))

	attendanceHandler := attendancefeature.NewHandler(s.API, s.Bus, errh, logger)
	r.Mount("/api/attendance", attendancefeature.Routes(attendanceHandler, sm))

	// Authentication audit trail (admins)
	auditHandler := auditlogfeature.NewHandler(s.AuditStore, errh, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler, sm))

	return r
}
