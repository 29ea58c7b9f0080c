package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strptr(s string) *string { return &s }

func TestEndpointAllowedMatrix(t *testing.T) {
	type row struct {
		resource string
		method   string
		allowed  []string
		denied   []string
	}
	rows := []row{
		{ResourceMatches, http.MethodGet, []string{RoleAdmin, RoleManager, RoleUser, RoleEmployee}, nil},
		{ResourceMatches, http.MethodPost, []string{RoleAdmin, RoleManager, RoleEmployee}, []string{RoleUser}},
		{ResourceMatches, http.MethodPut, []string{RoleAdmin, RoleManager, RoleUser}, []string{RoleEmployee}},
		{ResourceMatches, http.MethodDelete, []string{RoleAdmin, RoleManager}, []string{RoleUser, RoleEmployee}},

		{ResourceBets, http.MethodPost, []string{RoleAdmin, RoleManager, RoleEmployee}, []string{RoleUser}},
		{ResourceTickets, http.MethodPut, []string{RoleAdmin, RoleManager, RoleUser}, []string{RoleEmployee}},
		{ResourceOffers, http.MethodDelete, []string{RoleAdmin, RoleManager}, []string{RoleUser, RoleEmployee}},

		{ResourceUsers, http.MethodGet, []string{RoleAdmin, RoleManager}, []string{RoleUser, RoleEmployee}},
		{ResourceUsers, http.MethodPost, []string{RoleAdmin, RoleManager}, []string{RoleUser, RoleEmployee}},
		{ResourceUsers, http.MethodPut, []string{RoleAdmin, RoleManager}, []string{RoleUser, RoleEmployee}},
		{ResourceUsers, http.MethodDelete, []string{RoleAdmin, RoleManager}, []string{RoleUser, RoleEmployee}},

		{ResourceTeams, http.MethodPost, []string{RoleAdmin}, []string{RoleManager, RoleUser, RoleEmployee}},
		{ResourceTeams, http.MethodPut, []string{RoleAdmin}, []string{RoleManager, RoleUser, RoleEmployee}},
		{ResourceTeams, http.MethodDelete, []string{RoleAdmin}, []string{RoleManager, RoleUser, RoleEmployee}},
		{ResourceMarkets, http.MethodPost, []string{RoleAdmin}, []string{RoleManager, RoleUser, RoleEmployee}},
	}
	for _, r := range rows {
		for _, role := range r.allowed {
			assert.True(t, EndpointAllowed(r.resource, r.method, NewRoleSet(role)),
				"%s %s should allow %s", r.method, r.resource, role)
		}
		for _, role := range r.denied {
			assert.False(t, EndpointAllowed(r.resource, r.method, NewRoleSet(role)),
				"%s %s should deny %s", r.method, r.resource, role)
		}
	}
}

func TestEndpointAllowedUnknown(t *testing.T) {
	admin := NewRoleSet(RoleAdmin)
	assert.False(t, EndpointAllowed("unknown", http.MethodGet, admin))
	assert.False(t, EndpointAllowed(ResourceMatches, http.MethodPatch, admin))
	assert.False(t, EndpointAllowed(ResourceTeams, http.MethodGet, admin), "public reads are not routed through the table")
	assert.False(t, EndpointAllowed(ResourceMatches, http.MethodGet, RoleSet{}))
}

func TestVisibleScope(t *testing.T) {
	admin := Principal{Roles: NewRoleSet(RoleAdmin), Company: strptr("acme")}
	assert.True(t, VisibleScope(admin).All)

	mgr := Principal{Roles: NewRoleSet(RoleManager), Company: strptr("acme")}
	assert.Equal(t, Scope{Company: "acme"}, VisibleScope(mgr))

	noCompany := Principal{Roles: NewRoleSet(RoleUser)}
	assert.True(t, VisibleScope(noCompany).Empty(), "a principal without a company sees nothing")

	blank := Principal{Roles: NewRoleSet(RoleUser), Company: strptr("")}
	assert.True(t, VisibleScope(blank).Empty())
}

func TestCanModifyRecord(t *testing.T) {
	admin := Principal{Roles: NewRoleSet(RoleAdmin)}
	assert.True(t, CanModifyRecord(admin, nil))
	assert.True(t, CanModifyRecord(admin, strptr("other")))

	mgr := Principal{Roles: NewRoleSet(RoleManager), Company: strptr("acme")}
	assert.True(t, CanModifyRecord(mgr, strptr("acme")))
	assert.False(t, CanModifyRecord(mgr, strptr("other")))
	assert.False(t, CanModifyRecord(mgr, nil), "ownerless records are admin-only")

	homeless := Principal{Roles: NewRoleSet(RoleManager)}
	assert.False(t, CanModifyRecord(homeless, strptr("acme")))
}

func TestCheckRegistrationAnonymous(t *testing.T) {
	reg, err := CheckRegistration(nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleUser}, reg.Roles)

	reg, err = CheckRegistration(nil, []string{"user"}, strptr("acme"))
	require.NoError(t, err)
	assert.Equal(t, []string{RoleUser}, reg.Roles)
	assert.Equal(t, "acme", *reg.Company)

	_, err = CheckRegistration(nil, []string{"admin"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)

	_, err = CheckRegistration(nil, []string{"user", "employee"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)
}

func TestCheckRegistrationPlainUserCannotCreate(t *testing.T) {
	caller := &Principal{Username: "u", Roles: NewRoleSet(RoleUser)}
	_, err := CheckRegistration(caller, []string{"user"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)

	emp := &Principal{Username: "e", Roles: NewRoleSet(RoleEmployee)}
	_, err = CheckRegistration(emp, []string{"user"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)
}

func TestCheckRegistrationAdmin(t *testing.T) {
	admin := &Principal{Username: "root", Roles: NewRoleSet(RoleAdmin)}

	reg, err := CheckRegistration(admin, []string{"manager"}, strptr("acme"))
	require.NoError(t, err)
	assert.Equal(t, []string{RoleManager}, reg.Roles)
	assert.Equal(t, "acme", *reg.Company)

	reg, err = CheckRegistration(admin, []string{"admin"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleAdmin}, reg.Roles)
	assert.Nil(t, reg.Company)
}

func TestCheckRegistrationManager(t *testing.T) {
	mgr := &Principal{Username: "m", Roles: NewRoleSet(RoleManager), Company: strptr("acme")}

	// Missing company defaults to the manager's own.
	reg, err := CheckRegistration(mgr, []string{"employee"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{RoleEmployee}, reg.Roles)
	assert.Equal(t, "acme", *reg.Company)

	// Same company stated explicitly is fine.
	reg, err = CheckRegistration(mgr, []string{"user"}, strptr("acme"))
	require.NoError(t, err)
	assert.Equal(t, "acme", *reg.Company)

	// A different company is rejected.
	_, err = CheckRegistration(mgr, []string{"user"}, strptr("rival"))
	assert.ErrorIs(t, err, ErrRegistrationForbidden)

	// Managers never grant ADMIN or MANAGER.
	_, err = CheckRegistration(mgr, []string{"manager"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)
	_, err = CheckRegistration(mgr, []string{"admin"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)

	// A manager without a company cannot create accounts at all.
	homeless := &Principal{Username: "m2", Roles: NewRoleSet(RoleManager)}
	_, err = CheckRegistration(homeless, []string{"user"}, nil)
	assert.ErrorIs(t, err, ErrRegistrationForbidden)
}

func TestCheckRegistrationManagerWithAdminRoleUsesAdminRules(t *testing.T) {
	both := &Principal{Username: "b", Roles: NewRoleSet(RoleAdmin, RoleManager)}
	reg, err := CheckRegistration(both, []string{"manager"}, strptr("other"))
	require.NoError(t, err)
	assert.Equal(t, []string{RoleManager}, reg.Roles)
	assert.Equal(t, "other", *reg.Company)
}
