package authz

import "testing"

func TestAdminBypassIsAbsolute(t *testing.T) {
	admin := Principal{ID: 1, Role: RoleAdmin, Grants: NewGrantSet()}
	codes := []Code{
		MustCode("accounting.segments.view_page"),
		MustCode("accounting.segments.create"),
		MustCode("anything.not.declared"),
	}
	for _, code := range codes {
		if !Can(admin, code) {
			t.Fatalf("admin denied %s", code)
		}
	}
}

func TestWildcardBypassIsAbsolute(t *testing.T) {
	p := Principal{ID: 2, Role: RoleProfessor, Grants: NewGrantSet(Wildcard)}
	codes := []Code{
		MustCode("accounting.segments.view_page"),
		MustCode("anything.not.declared"),
	}
	for _, code := range codes {
		if !Can(p, code) {
			t.Fatalf("wildcard holder denied %s", code)
		}
	}
}

func TestMembershipFidelity(t *testing.T) {
	p := Principal{ID: 3, Role: RoleGerant, Grants: NewGrantSet(
		"accounting.segments.view_page",
		"training.courses.view_page",
	)}
	if !Can(p, MustCode("accounting.segments.view_page")) {
		t.Fatal("granted code denied")
	}
	if Can(p, MustCode("accounting.segments.create")) {
		t.Fatal("ungranted code allowed")
	}
	// A well-formed code absent from the catalog still resolves structurally.
	if Can(p, MustCode("ghost.menu.action")) {
		t.Fatal("undeclared ungranted code allowed")
	}
}

func TestCanAllVacuousTruth(t *testing.T) {
	for _, p := range []Principal{
		{Role: RoleAdmin},
		{Role: RoleGerant, Grants: NewGrantSet()},
		{Role: RoleProfessor, Grants: NewGrantSet(Wildcard)},
	} {
		if !CanAll(p) {
			t.Fatalf("CanAll with no codes should be true for role %s", p.Role)
		}
	}
}

func TestCanAnyEmptyIsFalseEvenForAdmin(t *testing.T) {
	for _, p := range []Principal{
		{Role: RoleAdmin},
		{Role: RoleGerant, Grants: NewGrantSet()},
		{Role: RoleProfessor, Grants: NewGrantSet(Wildcard)},
	} {
		if CanAny(p) {
			t.Fatalf("CanAny with no codes should be false for role %s", p.Role)
		}
	}
}

func TestCanAnyAndCanAllMembership(t *testing.T) {
	p := Principal{Role: RoleGerant, Grants: NewGrantSet("accounting.segments.view_page")}
	granted := MustCode("accounting.segments.view_page")
	denied := MustCode("accounting.segments.delete")
	if !CanAny(p, denied, granted) {
		t.Fatal("CanAny should hold with one granted code")
	}
	if CanAny(p, denied) {
		t.Fatal("CanAny should fail with only denied codes")
	}
	if CanAll(p, granted, denied) {
		t.Fatal("CanAll should fail when one code is denied")
	}
	if !CanAll(p, granted) {
		t.Fatal("CanAll should hold when every code is granted")
	}
}

func TestCanAccessModuleDerivation(t *testing.T) {
	p := Principal{Role: RoleGerant, Grants: NewGrantSet(
		"accounting.segments.view_page",
		"training.courses.create",
	)}
	if !CanAccessModule(p, "accounting") {
		t.Fatal("module with a view_page grant should be accessible")
	}
	// A non-view_page grant must not open the module.
	if CanAccessModule(p, "training") {
		t.Fatal("module without a view_page grant should not be accessible")
	}
	if CanAccessModule(p, "hr") {
		t.Fatal("module without any grant should not be accessible")
	}
}

func TestCanViewPage(t *testing.T) {
	p := Principal{Role: RoleGerant, Grants: NewGrantSet("accounting.segments.view_page")}
	if !CanViewPage(p, "accounting", "segments") {
		t.Fatal("granted page denied")
	}
	if CanViewPage(p, "accounting", "cities") {
		t.Fatal("ungranted page allowed")
	}
}

func TestViewablePages(t *testing.T) {
	p := Principal{Role: RoleGerant, Grants: NewGrantSet(
		"accounting.segments.view_page",
		"accounting.segments.create",
		"training.courses.view_page",
	)}
	pages := ViewablePages(p)
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages got %d: %v", len(pages), pages)
	}
	seen := make(map[string]bool, len(pages))
	for _, page := range pages {
		seen[page] = true
	}
	if !seen["accounting.segments.view_page"] || !seen["training.courses.view_page"] {
		t.Fatalf("unexpected pages %v", pages)
	}
}

func TestViewablePagesBypassSentinel(t *testing.T) {
	for _, p := range []Principal{
		{Role: RoleAdmin, Grants: NewGrantSet()},
		{Role: RoleProfessor, Grants: NewGrantSet(Wildcard)},
	} {
		pages := ViewablePages(p)
		if len(pages) != 1 || pages[0] != Wildcard {
			t.Fatalf("expected wildcard sentinel for role %s got %v", p.Role, pages)
		}
	}
}

func TestMalformedCodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for malformed code")
		}
	}()
	Can(Principal{Role: RoleGerant}, Code{Module: "Accounting", Menu: "segments", Action: "view_page"})
}

// Scenario: a gerant with a single page grant.
func TestScenarioGerantSegments(t *testing.T) {
	p := Principal{ID: 7, Role: RoleGerant, Grants: NewGrantSet("accounting.segments.view_page")}
	if !Can(p, MustCode("accounting.segments.view_page")) {
		t.Fatal("view_page should be granted")
	}
	if Can(p, MustCode("accounting.segments.create")) {
		t.Fatal("create should be denied")
	}
	if !CanAccessModule(p, "accounting") {
		t.Fatal("accounting module should be accessible")
	}
	if CanAccessModule(p, "training") {
		t.Fatal("training module should not be accessible")
	}
}

// Scenario: wildcard and admin role are independent, equivalent bypasses.
func TestScenarioBypassEquivalence(t *testing.T) {
	admin := Principal{ID: 8, Role: RoleAdmin, Grants: NewGrantSet()}
	wildcard := Principal{ID: 9, Role: RoleProfessor, Grants: NewGrantSet(Wildcard)}
	probe := MustCode("anything.not.declared")
	for _, p := range []Principal{admin, wildcard} {
		if !Can(p, probe) {
			t.Fatalf("bypass principal %d denied %s", p.ID, probe)
		}
		if !CanAll(p, probe, MustCode("accounting.segments.delete")) {
			t.Fatalf("bypass principal %d failed CanAll", p.ID)
		}
		if !CanAccessModule(p, "hr") {
			t.Fatalf("bypass principal %d denied module access", p.ID)
		}
		pages := ViewablePages(p)
		if len(pages) != 1 || pages[0] != Wildcard {
			t.Fatalf("bypass principal %d pages %v", p.ID, pages)
		}
	}
}
