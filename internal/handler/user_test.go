package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

func callWithParam(h echo.HandlerFunc, req *http.Request, p *auth.Principal, id string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	if p != nil {
		c.Set("principal", *p)
	}
	_ = h(c)
	return rec
}

func principalFor(username string, roles ...string) *auth.Principal {
	return &auth.Principal{Username: username, Roles: auth.NewRoleSet(roles...)}
}

func TestUserListScopedByCompany(t *testing.T) {
	users := newFakeUserStore()
	acme, rival := "acme", "rival"
	users.add("mgr", "pw", &acme, "manager")
	users.add("emp", "pw", &acme, "employee")
	users.add("other", "pw", &rival, "user")
	h := NewUserHandler(testConfig(), users)

	rec := callHandler(h.List, jsonRequest(http.MethodGet, "/v1/users", ""), principalFor("mgr", "manager"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "emp")
	assert.NotContains(t, rec.Body.String(), "other")
}

func TestUserListAdminSeesAll(t *testing.T) {
	users := newFakeUserStore()
	acme := "acme"
	users.add("root", "pw", nil, "admin")
	users.add("emp", "pw", &acme, "employee")
	h := NewUserHandler(testConfig(), users)

	rec := callHandler(h.List, jsonRequest(http.MethodGet, "/v1/users", ""), principalFor("root", "admin"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "emp")
	assert.Contains(t, rec.Body.String(), "root")
}

func TestUserListManagerWithoutCompanySeesNothing(t *testing.T) {
	users := newFakeUserStore()
	users.add("mgr", "pw", nil, "manager")
	users.add("someone", "pw", nil, "user")
	h := NewUserHandler(testConfig(), users)

	rec := callHandler(h.List, jsonRequest(http.MethodGet, "/v1/users", ""), principalFor("mgr", "manager"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestUserUpdateManagerConstraints(t *testing.T) {
	users := newFakeUserStore()
	acme, rival := "acme", "rival"
	users.add("mgr", "pw", &acme, "manager")
	emp := users.add("emp", "pw", &acme, "employee")
	outsider := users.add("outsider", "pw", &rival, "user")
	h := NewUserHandler(testConfig(), users)
	mgr := principalFor("mgr", "manager")

	// Same-company edit is allowed.
	rec := callWithParam(h.Update,
		jsonRequest(http.MethodPut, "/", `{"username":"emp2"}`), mgr, itoa(emp.ID))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another company's account is off limits.
	rec = callWithParam(h.Update,
		jsonRequest(http.MethodPut, "/", `{"username":"x"}`), mgr, itoa(outsider.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Role escalation through update is rejected.
	rec = callWithParam(h.Update,
		jsonRequest(http.MethodPut, "/", `{"roles":["admin"]}`), mgr, itoa(emp.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Moving the account to another company is rejected.
	rec = callWithParam(h.Update,
		jsonRequest(http.MethodPut, "/", `{"companyName":"rival"}`), mgr, itoa(emp.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserUpdateAdminUnrestricted(t *testing.T) {
	users := newFakeUserStore()
	rival := "rival"
	users.add("root", "pw", nil, "admin")
	target := users.add("emp", "pw", &rival, "employee")
	h := NewUserHandler(testConfig(), users)

	rec := callWithParam(h.Update,
		jsonRequest(http.MethodPut, "/", `{"roles":["manager"],"companyName":"acme"}`), principalFor("root", "admin"), itoa(target.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	u, err := users.GetByID(context.Background(), target.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{auth.RoleManager}, u.Roles)
	assert.Equal(t, "acme", *u.CompanyName)
}

func TestUserUpdateMissingTarget(t *testing.T) {
	users := newFakeUserStore()
	users.add("root", "pw", nil, "admin")
	h := NewUserHandler(testConfig(), users)

	rec := callWithParam(h.Update,
		jsonRequest(http.MethodPut, "/", `{"username":"x"}`), principalFor("root", "admin"), "999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserDeleteCompanyRule(t *testing.T) {
	users := newFakeUserStore()
	acme, rival := "acme", "rival"
	users.add("mgr", "pw", &acme, "manager")
	emp := users.add("emp", "pw", &acme, "employee")
	outsider := users.add("outsider", "pw", &rival, "user")
	h := NewUserHandler(testConfig(), users)
	mgr := principalFor("mgr", "manager")

	rec := callWithParam(h.Delete, jsonRequest(http.MethodDelete, "/", ""), mgr, itoa(outsider.ID))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = callWithParam(h.Delete, jsonRequest(http.MethodDelete, "/", ""), mgr, itoa(emp.ID))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := users.GetByID(context.Background(), emp.ID)
	assert.Error(t, err)
}

func TestUserCreateByManager(t *testing.T) {
	users := newFakeUserStore()
	acme := "acme"
	users.add("mgr", "pw", &acme, "manager")
	h := NewUserHandler(testConfig(), users)

	rec := callHandler(h.Create,
		jsonRequest(http.MethodPost, "/v1/users", `{"username":"emp","password":"pw","roles":["employee"]}`), principalFor("mgr", "manager"))
	require.Equal(t, http.StatusCreated, rec.Code)

	u, err := users.GetByUsername(context.Background(), "emp")
	require.NoError(t, err)
	assert.Equal(t, "acme", *u.CompanyName)
}

func itoa(id uint64) string { return strconv.FormatUint(id, 10) }
