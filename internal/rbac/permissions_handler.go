package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/platform/httpx"
)

// PermissionsHandler serves the permission catalog to the settings screens.
type PermissionsHandler struct {
	logger   *slog.Logger
	service  *Service
	rbac     Middleware
	collator *collate.Collator
}

// NewPermissionsHandler builds PermissionsHandler instance. Labels are
// French, so label ordering uses the French collation rules.
func NewPermissionsHandler(logger *slog.Logger, service *Service, rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{
		logger:   logger,
		service:  service,
		rbac:     rbac,
		collator: collate.New(language.French),
	}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequirePage("settings", "permissions"))
		r.Get("/", h.listCatalog)
		r.Get("/codes", h.listCodes)
		r.Get("/count", h.count)
		r.Get("/dangling", h.listDangling)
	})
}

type actionPayload struct {
	Action      string `json:"action"`
	Code        string `json:"code"`
	Label       string `json:"label"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

type menuPayload struct {
	Menu    string          `json:"menu"`
	Actions []actionPayload `json:"actions"`
}

type modulePayload struct {
	Module string        `json:"module"`
	Menus  []menuPayload `json:"menus"`
}

// listCatalog returns the full catalog grouped by module and menu. Actions
// come ordered by sort order; ?sort=label orders them by French-collated
// label instead.
func (h *PermissionsHandler) listCatalog(w http.ResponseWriter, r *http.Request) {
	byLabel := r.URL.Query().Get("sort") == "label"
	catalog := h.service.Catalog()

	modules := make([]modulePayload, 0, len(catalog.Modules()))
	for _, mod := range catalog.Modules() {
		mp := modulePayload{Module: mod.Module, Menus: make([]menuPayload, 0, len(mod.Menus))}
		for _, menu := range mod.Menus {
			actions := authz.SortActions(menu.Actions)
			if byLabel {
				h.collator.Sort(labelSorter(actions))
			}
			payload := make([]actionPayload, 0, len(actions))
			for _, act := range actions {
				code := authz.Code{Module: mod.Module, Menu: menu.Menu, Action: act.Action}
				payload = append(payload, actionPayload{
					Action:      act.Action,
					Code:        code.String(),
					Label:       act.Label,
					Description: act.Description,
					SortOrder:   act.SortOrder,
				})
			}
			mp.Menus = append(mp.Menus, menuPayload{Menu: menu.Menu, Actions: payload})
		}
		modules = append(modules, mp)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"modules": modules})
}

// listCodes returns the flat code list in authored order, the sequence the
// database seeder and release diff tooling consume.
func (h *PermissionsHandler) listCodes(w http.ResponseWriter, r *http.Request) {
	codes := h.service.Catalog().Codes()
	out := make([]string, len(codes))
	for i, code := range codes {
		out[i] = code.String()
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"codes": out})
}

func (h *PermissionsHandler) count(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]int{"count": h.service.Catalog().Count()})
}

// listDangling reports granted codes the catalog no longer declares.
func (h *PermissionsHandler) listDangling(w http.ResponseWriter, r *http.Request) {
	dangling, err := h.service.DanglingGrants(r.Context())
	if err != nil {
		h.logger.Error("list dangling grants", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if dangling == nil {
		dangling = []string{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"dangling": dangling})
}

// labelSorter adapts action descriptors to the collator's sort interface.
type labelSorter []authz.ActionDescriptor

func (s labelSorter) Len() int           { return len(s) }
func (s labelSorter) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s labelSorter) Bytes(i int) []byte { return []byte(s[i].Label) }
