package authz

import (
	"errors"
	"strings"
	"testing"
)

func minimalDefs() []ModuleDef {
	return []ModuleDef{
		{
			Module: "accounting",
			Menus: []MenuDef{
				{
					Menu: "segments",
					Actions: []ActionDescriptor{
						{Action: ActionViewPage, Label: "Voir", Description: "", SortOrder: 1},
						{Action: "create", Label: "Créer", Description: "", SortOrder: 2},
					},
				},
			},
		},
		{
			Module: "training",
			Menus: []MenuDef{
				{
					Menu: "courses",
					Actions: []ActionDescriptor{
						{Action: ActionViewPage, Label: "Voir", Description: "", SortOrder: 1},
					},
				},
			},
		},
	}
}

func TestNewCatalogCountMatchesCodes(t *testing.T) {
	c, err := NewCatalog(minimalDefs())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if c.Count() != len(c.Codes()) {
		t.Fatalf("count %d != len(codes) %d", c.Count(), len(c.Codes()))
	}
	if c.Count() != 3 {
		t.Fatalf("expected 3 actions got %d", c.Count())
	}
}

func TestEmptyCatalog(t *testing.T) {
	c, err := NewCatalog(nil)
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	if c.Count() != 0 {
		t.Fatalf("empty catalog count %d", c.Count())
	}
	if len(c.Codes()) != 0 {
		t.Fatalf("empty catalog codes %v", c.Codes())
	}
}

func TestCodesAuthoredOrderAndStability(t *testing.T) {
	c, err := NewCatalog(minimalDefs())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	want := []string{
		"accounting.segments.view_page",
		"accounting.segments.create",
		"training.courses.view_page",
	}
	first := c.Codes()
	second := c.Codes()
	for i, code := range first {
		if code.String() != want[i] {
			t.Fatalf("code %d: got %s want %s", i, code, want[i])
		}
		if second[i] != first[i] {
			t.Fatalf("Codes not stable across calls at %d", i)
		}
	}
}

func TestDuplicateTripleRejected(t *testing.T) {
	defs := []ModuleDef{{
		Module: "x",
		Menus: []MenuDef{{
			Menu: "y",
			Actions: []ActionDescriptor{
				{Action: "z", Label: "A", SortOrder: 1},
				{Action: "z", Label: "B", SortOrder: 2},
			},
		}},
	}}
	_, err := NewCatalog(defs)
	var integrity *IntegrityError
	if !errors.As(err, &integrity) {
		t.Fatalf("expected IntegrityError got %v", err)
	}
	if integrity.Module != "x" || integrity.Menu != "y" || integrity.Action != "z" {
		t.Fatalf("error does not name the offending triple: %v", integrity)
	}
}

func TestCatalogRejectsBadDescriptors(t *testing.T) {
	cases := []struct {
		name   string
		action ActionDescriptor
		reason string
	}{
		{"missing label", ActionDescriptor{Action: "create", SortOrder: 1}, "missing label"},
		{"zero sort order", ActionDescriptor{Action: "create", Label: "Créer"}, "sort order"},
		{"malformed action", ActionDescriptor{Action: "Create", Label: "Créer", SortOrder: 1}, "malformed action"},
	}
	for _, tc := range cases {
		defs := []ModuleDef{{Module: "m", Menus: []MenuDef{{Menu: "n", Actions: []ActionDescriptor{tc.action}}}}}
		_, err := NewCatalog(defs)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.reason) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.reason)
		}
	}
}

func TestMustCatalogPanicsBeforeAnyResolution(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic from MustCatalog")
		}
	}()
	MustCatalog([]ModuleDef{{
		Module: "x",
		Menus: []MenuDef{{
			Menu: "y",
			Actions: []ActionDescriptor{
				{Action: "z", Label: "A", SortOrder: 1},
				{Action: "z", Label: "B", SortOrder: 2},
			},
		}},
	}})
}

func TestSortActionsStableTies(t *testing.T) {
	actions := []ActionDescriptor{
		{Action: "b", Label: "B", SortOrder: 2},
		{Action: "a", Label: "A", SortOrder: 1},
		{Action: "c", Label: "C", SortOrder: 2},
	}
	sorted := SortActions(actions)
	if sorted[0].Action != "a" || sorted[1].Action != "b" || sorted[2].Action != "c" {
		t.Fatalf("unexpected order %v", sorted)
	}
	// Input untouched.
	if actions[0].Action != "b" {
		t.Fatal("SortActions mutated its input")
	}
}

func TestLookup(t *testing.T) {
	c, err := NewCatalog(minimalDefs())
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	desc, ok := c.Lookup(MustCode("accounting.segments.create"))
	if !ok || desc.Label != "Créer" {
		t.Fatalf("lookup failed: %v %v", desc, ok)
	}
	if _, ok := c.Lookup(MustCode("ghost.menu.action")); ok {
		t.Fatal("lookup of undeclared code succeeded")
	}
}
