package auth // package auth holds the authentication and authorization core

import (
	"sort"
	"strings"
)

// Role names are always handled in one canonical form: upper case with the
// ROLE_ prefix, e.g. "ROLE_ADMIN".  Clients may send "admin", "ADMIN" or
// "ROLE_ADMIN"; NormalizeRole folds all of them onto the canonical name
// before any comparison or persistence happens.
const (
	RoleAdmin    = "ROLE_ADMIN"
	RoleManager  = "ROLE_MANAGER"
	RoleUser     = "ROLE_USER"
	RoleEmployee = "ROLE_EMPLOYEE"
)

const rolePrefix = "ROLE_"

// NormalizeRole maps a client-supplied role name onto its canonical form.
// Empty or blank input normalizes to the empty string and should be
// discarded by the caller.
func NormalizeRole(role string) string {
	role = strings.ToUpper(strings.TrimSpace(role))
	if role == "" {
		return ""
	}
	if !strings.HasPrefix(role, rolePrefix) {
		role = rolePrefix + role
	}
	return role
}

// NormalizeRoles normalizes a requested role list and drops blanks and
// duplicates.  An empty request defaults to {ROLE_USER}; a freshly created
// account never ends up without a role.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	var out []string
	for _, r := range roles {
		n := NormalizeRole(r)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		out = []string{RoleUser}
	}
	sort.Strings(out)
	return out
}

// RoleSet is a flat set of canonical role names.  Authorization rules look
// roles up in the set; there is no hierarchy between roles.
type RoleSet map[string]bool

// NewRoleSet builds a RoleSet from any mix of raw and canonical names.
func NewRoleSet(roles ...string) RoleSet {
	s := make(RoleSet, len(roles))
	for _, r := range roles {
		if n := NormalizeRole(r); n != "" {
			s[n] = true
		}
	}
	return s
}

// Has reports whether the set contains the given role.  The argument is
// normalized first, so Has("admin") and Has(RoleAdmin) are equivalent.
func (s RoleSet) Has(role string) bool { return s[NormalizeRole(role)] }

// HasAny reports whether the set contains at least one of the given roles.
func (s RoleSet) HasAny(roles ...string) bool {
	for _, r := range roles {
		if s.Has(r) {
			return true
		}
	}
	return false
}

// Names returns the canonical role names in sorted order.
func (s RoleSet) Names() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Principal is the authenticated caller as seen by policy checks.  It is
// built at the HTTP boundary (from the access token, optionally enriched
// with the backing user record) and passed explicitly into every check;
// nothing in this package reads ambient request state.
type Principal struct {
	Username string
	Company  *string // nil when the user has no company
	Roles    RoleSet
}

// IsAdmin reports whether the principal carries ROLE_ADMIN.
func (p Principal) IsAdmin() bool { return p.Roles.Has(RoleAdmin) }

// IsManager reports whether the principal carries ROLE_MANAGER.
func (p Principal) IsManager() bool { return p.Roles.Has(RoleManager) }
