package authz

import (
	"fmt"
	"sort"
)

// ActionDescriptor declares one grantable action inside a menu, with the
// presentation metadata the settings screens render.
type ActionDescriptor struct {
	Action      string
	Label       string
	Description string
	SortOrder   int
}

// MenuDef groups the actions of one menu, in authored order.
type MenuDef struct {
	Menu    string
	Actions []ActionDescriptor
}

// ModuleDef groups the menus of one module, in authored order.
type ModuleDef struct {
	Module string
	Menus  []MenuDef
}

// IntegrityError reports a malformed catalog definition. It names the
// offending triple so the bad declaration can be found immediately.
type IntegrityError struct {
	Module string
	Menu   string
	Action string
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("authz: catalog integrity: %s.%s.%s: %s", e.Module, e.Menu, e.Action, e.Reason)
}

// Catalog is the frozen module -> menu -> actions registry. It is built once
// by NewCatalog, validated, and never mutated afterwards, so it may be shared
// across goroutines without synchronization.
type Catalog struct {
	modules []ModuleDef
	index   map[Code]ActionDescriptor
}

// NewCatalog validates and freezes a catalog definition. Duplicate triples,
// empty or malformed segments, missing labels and non-positive sort orders
// are rejected here, at load time, never per request.
func NewCatalog(defs []ModuleDef) (*Catalog, error) {
	c := &Catalog{
		modules: make([]ModuleDef, 0, len(defs)),
		index:   make(map[Code]ActionDescriptor),
	}
	seenModules := make(map[string]struct{}, len(defs))
	for _, mod := range defs {
		if !segmentPattern.MatchString(mod.Module) {
			return nil, &IntegrityError{Module: mod.Module, Reason: "malformed module segment"}
		}
		if _, dup := seenModules[mod.Module]; dup {
			return nil, &IntegrityError{Module: mod.Module, Reason: "duplicate module"}
		}
		seenModules[mod.Module] = struct{}{}

		frozen := ModuleDef{Module: mod.Module, Menus: make([]MenuDef, 0, len(mod.Menus))}
		seenMenus := make(map[string]struct{}, len(mod.Menus))
		for _, menu := range mod.Menus {
			if !segmentPattern.MatchString(menu.Menu) {
				return nil, &IntegrityError{Module: mod.Module, Menu: menu.Menu, Reason: "malformed menu segment"}
			}
			if _, dup := seenMenus[menu.Menu]; dup {
				return nil, &IntegrityError{Module: mod.Module, Menu: menu.Menu, Reason: "duplicate menu"}
			}
			seenMenus[menu.Menu] = struct{}{}

			actions := make([]ActionDescriptor, 0, len(menu.Actions))
			for _, act := range menu.Actions {
				code := Code{Module: mod.Module, Menu: menu.Menu, Action: act.Action}
				if !segmentPattern.MatchString(act.Action) {
					return nil, &IntegrityError{Module: mod.Module, Menu: menu.Menu, Action: act.Action, Reason: "malformed action segment"}
				}
				if act.Label == "" {
					return nil, &IntegrityError{Module: mod.Module, Menu: menu.Menu, Action: act.Action, Reason: "missing label"}
				}
				if act.SortOrder <= 0 {
					return nil, &IntegrityError{Module: mod.Module, Menu: menu.Menu, Action: act.Action, Reason: "non-positive sort order"}
				}
				if _, dup := c.index[code]; dup {
					return nil, &IntegrityError{Module: mod.Module, Menu: menu.Menu, Action: act.Action, Reason: "duplicate action"}
				}
				c.index[code] = act
				actions = append(actions, act)
			}
			frozen.Menus = append(frozen.Menus, MenuDef{Menu: menu.Menu, Actions: actions})
		}
		c.modules = append(c.modules, frozen)
	}
	return c, nil
}

// MustCatalog builds a catalog and panics on an integrity error. A corrupt
// catalog silently under- or over-grants platform-wide, so construction
// failure aborts startup.
func MustCatalog(defs []ModuleDef) *Catalog {
	c, err := NewCatalog(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// Count returns the total number of declared actions. Zero for an empty
// catalog.
func (c *Catalog) Count() int {
	return len(c.index)
}

// Codes yields every declared code in authored order: modules, then menus,
// then actions, exactly as declared. The order is stable across calls and is
// what the database seeder and release diff tooling rely on.
func (c *Catalog) Codes() []Code {
	codes := make([]Code, 0, len(c.index))
	for _, mod := range c.modules {
		for _, menu := range mod.Menus {
			for _, act := range menu.Actions {
				codes = append(codes, Code{Module: mod.Module, Menu: menu.Menu, Action: act.Action})
			}
		}
	}
	return codes
}

// Modules returns the frozen module definitions in authored order. Callers
// must treat the returned slices as read-only.
func (c *Catalog) Modules() []ModuleDef {
	return c.modules
}

// Lookup returns the descriptor declared for code, if any.
func (c *Catalog) Lookup(code Code) (ActionDescriptor, bool) {
	desc, ok := c.index[code]
	return desc, ok
}

// Declares reports whether code exists in the catalog. Note the engine never
// consults this: a well-formed granted code resolves even when the catalog
// metadata lags behind.
func (c *Catalog) Declares(code Code) bool {
	_, ok := c.index[code]
	return ok
}

// SortActions returns a copy of actions ordered by SortOrder for
// presentation. The sort is stable, so equal sort orders keep their
// declaration order.
func SortActions(actions []ActionDescriptor) []ActionDescriptor {
	out := make([]ActionDescriptor, len(actions))
	copy(out, actions)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out
}
