package authz

// Role is the closed set of back-office roles. The admin role carries an
// absolute bypass; the others are authorized purely by their grant set.
type Role string

// Known roles.
const (
	RoleAdmin     Role = "admin"
	RoleGerant    Role = "gerant"
	RoleProfessor Role = "professor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleGerant, RoleProfessor:
		return true
	}
	return false
}

// GrantSet is a flat set of permission code strings, possibly containing the
// wildcard. The engine treats it as read-only.
type GrantSet map[string]struct{}

// NewGrantSet builds a GrantSet from raw code strings.
func NewGrantSet(codes ...string) GrantSet {
	set := make(GrantSet, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

// Has reports membership of the exact string s.
func (g GrantSet) Has(s string) bool {
	_, ok := g[s]
	return ok
}

// Principal is the authenticated actor the engine decides for. The grant set
// is materialized by the caller (role-permission join, already fetched)
// before any resolution happens.
type Principal struct {
	ID     int64
	Role   Role
	Grants GrantSet
}

// Bypass reports whether the principal is unconditionally authorized for
// every code: the admin role and the wildcard grant are independent,
// equally absolute bypass paths.
func (p Principal) Bypass() bool {
	return p.Role == RoleAdmin || p.Grants.Has(Wildcard)
}
