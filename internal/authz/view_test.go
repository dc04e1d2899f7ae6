package authz

import "testing"

func TestNewViewNonPrivileged(t *testing.T) {
	p := Principal{ID: 4, Role: RoleGerant, Grants: NewGrantSet(
		"accounting.segments.view_page",
		"accounting.segments.create",
	)}
	v := NewView(DefaultCatalog(), p)

	if len(v.Pages) != 1 || v.Pages[0] != "accounting.segments.view_page" {
		t.Fatalf("unexpected pages %v", v.Pages)
	}
	if len(v.Modules) != 1 || v.Modules[0] != "accounting" {
		t.Fatalf("unexpected modules %v", v.Modules)
	}
	bundle := v.Bundles["accounting"]
	if bundle == nil {
		t.Fatal("missing accounting bundle")
	}
	if !bundle["canViewSegments"] || !bundle["canCreateSegment"] {
		t.Fatalf("granted capabilities missing: %v", bundle)
	}
	if bundle["canDeleteSegment"] {
		t.Fatal("ungranted capability reported true")
	}
	// Each field mirrors exactly one Can lookup.
	for _, f := range BundleFields("accounting") {
		if bundle[f.Name] != Can(p, f.Code) {
			t.Fatalf("bundle field %s diverges from Can(%s)", f.Name, f.Code)
		}
	}
}

func TestNewViewBypass(t *testing.T) {
	v := NewView(DefaultCatalog(), Principal{ID: 5, Role: RoleAdmin})
	if len(v.Pages) != 1 || v.Pages[0] != Wildcard {
		t.Fatalf("expected wildcard sentinel got %v", v.Pages)
	}
	if len(v.Modules) != len(DefaultCatalog().Modules()) {
		t.Fatalf("admin should access every module, got %v", v.Modules)
	}
	for module, bundle := range v.Bundles {
		for name, allowed := range bundle {
			if !allowed {
				t.Fatalf("admin bundle %s.%s is false", module, name)
			}
		}
	}
}
