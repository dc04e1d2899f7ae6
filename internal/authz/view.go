package authz

// View is the memoized projection of (catalog, principal): everything the
// front end needs to lay out navigation and toggle controls, computed once.
// It is a pure cache keyed by the principal's grant set; callers rebuild it
// whenever the grant set changes (re-authentication, role edit). Rebuilding
// is always safe, only redundant.
type View struct {
	// Pages holds every granted view_page code, or the single wildcard
	// sentinel under bypass.
	Pages []string
	// Modules lists the accessible modules in catalog order.
	Modules []string
	// Bundles maps module name to its capability booleans.
	Bundles map[string]map[string]bool
}

// NewView computes the full projection for the principal against the
// catalog.
func NewView(c *Catalog, p Principal) *View {
	v := &View{
		Pages:   ViewablePages(p),
		Bundles: make(map[string]map[string]bool, len(c.Modules())),
	}
	for _, mod := range c.Modules() {
		if CanAccessModule(p, mod.Module) {
			v.Modules = append(v.Modules, mod.Module)
		}
		if bundle := Bundle(p, mod.Module); bundle != nil {
			v.Bundles[mod.Module] = bundle
		}
	}
	return v
}
