package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/config"
	"github.com/luizfprog/betesportes-api/internal/repository"
)

// UserHandler implements user management for back-office operators.  The
// route group is already gated to ADMIN/MANAGER by the endpoint policy;
// the handlers add the per-record company rules: an admin touches anyone,
// a manager only accounts of their own company and never with ADMIN or
// MANAGER roles.
type UserHandler struct {
	Cfg   config.Config
	Users UserStore
}

func NewUserHandler(cfg config.Config, users UserStore) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users}
}

// List returns the users in the caller's visible scope: all of them for an
// admin, the same-company ones for a manager, nobody for a manager without
// a company.
func (h *UserHandler) List(c echo.Context) error {
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	users, err := h.Users.List(ctx, auth.VisibleScope(p))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	views := make([]userView, 0, len(users))
	for _, u := range users {
		views = append(views, newUserView(u))
	}
	return c.JSON(http.StatusOK, views)
}

// Create makes a new account under the same policy as registration.
func (h *UserHandler) Create(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	reg, err := auth.CheckRegistration(&p, req.Roles, req.CompanyName)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	taken, err := h.Users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if taken {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
	}
	hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	id, err := h.Users.Create(ctx, req.Username, hash, reg.Company, reg.Roles)
	if err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, userView{ID: id, Username: req.Username, CompanyName: reg.Company, Roles: reg.Roles})
}

// Update partially updates an account.  Supplied fields replace the stored
// ones; omitted fields are kept.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if !p.IsAdmin() {
		if !auth.CanModifyRecord(p, target.CompanyName) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		requested := auth.NewRoleSet(req.Roles...)
		if requested.Has(auth.RoleAdmin) || requested.Has(auth.RoleManager) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		if req.CompanyName != nil && (p.Company == nil || *req.CompanyName != *p.Company) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
	}

	if u := strings.TrimSpace(req.Username); u != "" {
		target.Username = u
	}
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
		}
		target.PasswordHash = hash
	}
	if req.CompanyName != nil {
		target.CompanyName = req.CompanyName
	}
	if len(req.Roles) > 0 {
		target.Roles = auth.NormalizeRoles(req.Roles)
	}

	if err := h.Users.Update(ctx, target); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, newUserView(target))
}

// Delete removes an account, with the same company rule as Update.
func (h *UserHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	target, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, target.CompanyName) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Users.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
