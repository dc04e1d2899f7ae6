package authz

import "fmt"

// Can reports whether the principal may perform code. The order is the core
// contract: admin role first, wildcard grant second, set membership last.
// Denial is a plain false, never an error. A malformed code panics so that a
// buggy check is never mistaken for a legitimate denial.
func Can(p Principal, code Code) bool {
	if !code.wellFormed() {
		panic(fmt.Sprintf("authz: malformed permission code %+v", code))
	}
	if p.Bypass() {
		return true
	}
	return p.Grants.Has(code.String())
}

// CanAny reports whether the principal may perform at least one of codes.
// Bypass is checked once, before the per-code membership scan, but an empty
// requirement list is always false: with zero codes there is nothing to
// authorize, even for an admin.
func CanAny(p Principal, codes ...Code) bool {
	if len(codes) == 0 {
		return false
	}
	if p.Bypass() {
		return true
	}
	for _, code := range codes {
		if Can(p, code) {
			return true
		}
	}
	return false
}

// CanAll reports whether the principal may perform every one of codes. An
// empty requirement list is vacuously true, the deliberate asymmetry with
// CanAny.
func CanAll(p Principal, codes ...Code) bool {
	if p.Bypass() {
		return true
	}
	for _, code := range codes {
		if !Can(p, code) {
			return false
		}
	}
	return true
}

// CanViewPage reports whether the principal may open the screen of
// module.menu, i.e. holds its reserved view_page action.
func CanViewPage(p Principal, module, menu string) bool {
	return Can(p, Code{Module: module, Menu: menu, Action: ActionViewPage})
}

// CanAccessModule reports whether the principal can see at least one page
// inside module. There is no per-module grant: module access is entirely
// derived from menu-level view_page grants.
func CanAccessModule(p Principal, module string) bool {
	if !segmentPattern.MatchString(module) {
		panic(fmt.Sprintf("authz: malformed module segment %q", module))
	}
	if p.Bypass() {
		return true
	}
	for grant := range p.Grants {
		code, ok := splitGrant(grant)
		if !ok {
			continue
		}
		if code.Module == module && code.IsViewPage() {
			return true
		}
	}
	return false
}

// ViewablePages returns every granted page code of the principal. Under
// bypass it returns the single wildcard sentinel, meaning all pages;
// consumers must not enumerate the sentinel as a real code. Order is
// unspecified, callers needing a stable order must sort.
func ViewablePages(p Principal) []string {
	if p.Bypass() {
		return []string{Wildcard}
	}
	var pages []string
	for grant := range p.Grants {
		code, ok := splitGrant(grant)
		if !ok {
			continue
		}
		if code.IsViewPage() {
			pages = append(pages, grant)
		}
	}
	return pages
}
