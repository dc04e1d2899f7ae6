package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/atelier-erp/atelier-erp/internal/accounting"
	"github.com/atelier-erp/atelier-erp/internal/auth"
	"github.com/atelier-erp/atelier-erp/internal/observability"
	"github.com/atelier-erp/atelier-erp/internal/rbac"
	"github.com/atelier-erp/atelier-erp/internal/roles"
	"github.com/atelier-erp/atelier-erp/internal/shared"
	"github.com/atelier-erp/atelier-erp/internal/users"
	"github.com/atelier-erp/atelier-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	RBACMiddleware rbac.Middleware

	AuthHandler         *auth.Handler
	RolesHandler        *roles.Handler
	UsersHandler        *users.Handler
	AccountingHandler   *accounting.Handler
	PermissionsHandler  *rbac.PermissionsHandler
	CapabilitiesHandler *rbac.CapabilitiesHandler
	JobHandler          *jobs.Handler
	Metrics             *observability.Metrics
}

// NewRouter constructs the chi.Router serving the JSON API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)

		if params.RolesHandler != nil {
			params.RolesHandler.MountRoutes(r, params.RBACMiddleware)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r, params.RBACMiddleware)
		}
		if params.AccountingHandler != nil {
			r.Route("/accounting", func(r chi.Router) {
				params.AccountingHandler.MountRoutes(r, params.RBACMiddleware)
			})
		}
		if params.PermissionsHandler != nil {
			r.Route("/permissions", params.PermissionsHandler.MountRoutes)
		}
		if params.CapabilitiesHandler != nil {
			r.Route("/me/capabilities", params.CapabilitiesHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
