package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// CapabilitiesHandler serves the per-principal projection the front end
// consumes for navigation and control toggling.
type CapabilitiesHandler struct {
	logger  *slog.Logger
	service *Service
	rbac    Middleware
}

// NewCapabilitiesHandler builds CapabilitiesHandler instance.
func NewCapabilitiesHandler(logger *slog.Logger, service *Service, rbac Middleware) *CapabilitiesHandler {
	return &CapabilitiesHandler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers capability routes under the authenticated group.
func (h *CapabilitiesHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Get("/", h.capabilities)
	})
}

type capabilitiesPayload struct {
	Role    string                     `json:"role"`
	Pages   []string                   `json:"pages"`
	Modules []string                   `json:"modules"`
	Bundles map[string]map[string]bool `json:"bundles"`
}

// capabilities computes the memoized view for the session principal. The
// projection is rebuilt per request; the grant set behind it is what the
// Redis cache amortizes.
func (h *CapabilitiesHandler) capabilities(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "")
		return
	}
	view := authz.NewView(h.service.Catalog(), principal)
	if view.Modules == nil {
		view.Modules = []string{}
	}
	if view.Pages == nil {
		view.Pages = []string{}
	}
	httpx.JSON(w, http.StatusOK, capabilitiesPayload{
		Role:    string(principal.Role),
		Pages:   view.Pages,
		Modules: view.Modules,
		Bundles: view.Bundles,
	})
}
