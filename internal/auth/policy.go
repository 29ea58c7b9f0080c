package auth

import (
	"errors"
	"net/http"
)

// Resource classes used by the endpoint policy table.  Handlers tag their
// route groups with one of these; the table below decides which roles may
// call which HTTP method on that class.
const (
	ResourceTeams   = "teams"
	ResourceMatches = "matches"
	ResourceMarkets = "markets"
	ResourceBets    = "bets"
	ResourceTickets = "tickets"
	ResourceOffers  = "offers"
	ResourceUsers   = "users"
)

// endpointPolicy is the static resource x verb -> allowed-roles table.
//
// The matrix is deliberately asymmetric and must stay exactly like this:
//   - match/bet/ticket/offer reads are open to every role,
//   - USER cannot POST, EMPLOYEE cannot PUT, only ADMIN/MANAGER delete,
//   - user management is ADMIN/MANAGER only,
//   - team and market mutation is ADMIN only (their reads are public and
//     therefore not listed here).
//
// Anything absent from the table is denied.
var endpointPolicy = map[string]map[string][]string{
	ResourceMatches: crudPolicy(),
	ResourceBets:    crudPolicy(),
	ResourceTickets: crudPolicy(),
	ResourceOffers:  crudPolicy(),
	ResourceUsers: {
		http.MethodGet:    {RoleAdmin, RoleManager},
		http.MethodPost:   {RoleAdmin, RoleManager},
		http.MethodPut:    {RoleAdmin, RoleManager},
		http.MethodDelete: {RoleAdmin, RoleManager},
	},
	ResourceTeams: {
		http.MethodPost:   {RoleAdmin},
		http.MethodPut:    {RoleAdmin},
		http.MethodDelete: {RoleAdmin},
	},
	ResourceMarkets: {
		http.MethodPost:   {RoleAdmin},
		http.MethodPut:    {RoleAdmin},
		http.MethodDelete: {RoleAdmin},
	},
}

func crudPolicy() map[string][]string {
	return map[string][]string{
		http.MethodGet:    {RoleAdmin, RoleManager, RoleUser, RoleEmployee},
		http.MethodPost:   {RoleAdmin, RoleManager, RoleEmployee},
		http.MethodPut:    {RoleAdmin, RoleManager, RoleUser},
		http.MethodDelete: {RoleAdmin, RoleManager},
	}
}

// EndpointAllowed reports whether a caller holding the given roles may call
// method on the resource class.  Unknown resources and methods are denied.
func EndpointAllowed(resource, method string, roles RoleSet) bool {
	methods, ok := endpointPolicy[resource]
	if !ok {
		return false
	}
	allowed, ok := methods[method]
	if !ok {
		return false
	}
	return roles.HasAny(allowed...)
}

// Scope is the visible data partition for a read.  Exactly one of three
// states holds: All (admin), a company filter, or nothing at all.  A
// principal without a company sees an empty set, never everything.
type Scope struct {
	All     bool
	Company string
}

// Empty reports whether the scope matches no records at all.
func (s Scope) Empty() bool { return !s.All && s.Company == "" }

// VisibleScope derives the read scope for a principal: admins see all
// records, everyone else sees records owned by users of their own company.
func VisibleScope(p Principal) Scope {
	if p.IsAdmin() {
		return Scope{All: true}
	}
	if p.Company != nil && *p.Company != "" {
		return Scope{Company: *p.Company}
	}
	return Scope{}
}

// CanModifyRecord decides whether p may update or delete a record whose
// owner belongs to ownerCompany.  Admins may touch anything; other callers
// need a company of their own that matches the owner's.  Records without an
// owner company are admin-only.
func CanModifyRecord(p Principal, ownerCompany *string) bool {
	if p.IsAdmin() {
		return true
	}
	if p.Company == nil || *p.Company == "" {
		return false
	}
	if ownerCompany == nil || *ownerCompany == "" {
		return false
	}
	return *p.Company == *ownerCompany
}

// ErrRegistrationForbidden is returned by CheckRegistration when the caller
// may not create the requested account.
var ErrRegistrationForbidden = errors.New("registration forbidden")

// Registration is the validated outcome of a registration request: the
// canonical role set to store and the company the account will belong to.
type Registration struct {
	Roles   []string
	Company *string
}

// CheckRegistration applies the registration policy.  caller is nil for
// anonymous self-registration.
//
// Rules:
//   - anonymous callers may only create a plain USER account (exactly
//     {ROLE_USER}, which is also the default for an empty role list);
//   - authenticated callers must be ADMIN or MANAGER;
//   - only ADMIN may grant ADMIN or MANAGER;
//   - MANAGER may only create USER or EMPLOYEE accounts, and the new account
//     is pinned to the manager's own company: a missing companyName defaults
//     to it and a different one is rejected.  A manager without a company
//     cannot create accounts at all.
func CheckRegistration(caller *Principal, requestedRoles []string, company *string) (Registration, error) {
	roles := NormalizeRoles(requestedRoles)

	if caller == nil {
		if len(roles) != 1 || roles[0] != RoleUser {
			return Registration{}, ErrRegistrationForbidden
		}
		return Registration{Roles: roles, Company: company}, nil
	}

	isAdmin := caller.IsAdmin()
	isManager := caller.IsManager()
	if !isAdmin && !isManager {
		return Registration{}, ErrRegistrationForbidden
	}

	set := NewRoleSet(roles...)
	if (set.Has(RoleAdmin) || set.Has(RoleManager)) && !isAdmin {
		return Registration{}, ErrRegistrationForbidden
	}

	if isManager && !isAdmin {
		for _, r := range roles {
			if r != RoleUser && r != RoleEmployee {
				return Registration{}, ErrRegistrationForbidden
			}
		}
		if caller.Company == nil || *caller.Company == "" {
			return Registration{}, ErrRegistrationForbidden
		}
		if company == nil {
			company = caller.Company
		} else if *company != *caller.Company {
			return Registration{}, ErrRegistrationForbidden
		}
	}

	return Registration{Roles: roles, Company: company}, nil
}
