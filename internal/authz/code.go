// Package authz holds the permission catalog and the pure resolution engine
// that decides what an authenticated principal may do. It performs no I/O:
// persistence of grants and the HTTP guard layer live in internal/rbac.
package authz

import (
	"fmt"
	"regexp"
	"strings"
)

// Wildcard is the reserved grant meaning "every permission". It is never a
// valid three-segment code.
const Wildcard = "*"

// ActionViewPage is the reserved action name consulted for route-level
// visibility. Every menu with a dedicated screen declares exactly one.
const ActionViewPage = "view_page"

var (
	codePattern    = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)
	segmentPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
)

// Code identifies one grantable capability as module.menu.action. The string
// form exists only at boundaries (storage, wire); internally the three
// segments stay separate.
type Code struct {
	Module string
	Menu   string
	Action string
}

// ParseCode parses the canonical module.menu.action string form.
func ParseCode(s string) (Code, error) {
	if !codePattern.MatchString(s) {
		return Code{}, fmt.Errorf("authz: malformed permission code %q", s)
	}
	parts := strings.SplitN(s, ".", 3)
	return Code{Module: parts[0], Menu: parts[1], Action: parts[2]}, nil
}

// MustCode parses s and panics on malformed input. Intended for call sites
// with literal codes, where a bad string is a programmer error.
func MustCode(s string) Code {
	code, err := ParseCode(s)
	if err != nil {
		panic(err)
	}
	return code
}

// String returns the canonical module.menu.action form.
func (c Code) String() string {
	return c.Module + "." + c.Menu + "." + c.Action
}

// IsViewPage reports whether the code's action segment is the reserved
// view_page action.
func (c Code) IsViewPage() bool {
	return c.Action == ActionViewPage
}

func (c Code) wellFormed() bool {
	return segmentPattern.MatchString(c.Module) &&
		segmentPattern.MatchString(c.Menu) &&
		segmentPattern.MatchString(c.Action)
}

// splitGrant splits a raw grant string into a code without allocating an
// error. Grants that are not three well-formed segments (including the
// wildcard) report ok=false.
func splitGrant(s string) (Code, bool) {
	if !codePattern.MatchString(s) {
		return Code{}, false
	}
	parts := strings.SplitN(s, ".", 3)
	return Code{Module: parts[0], Menu: parts[1], Action: parts[2]}, true
}
