package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/config"
	"github.com/luizfprog/betesportes-api/internal/middleware"
	"github.com/luizfprog/betesportes-api/internal/repository"
)

// AuthHandler bundles dependencies for the auth endpoints: login, refresh,
// registration, logout and the current-user lookup.
type AuthHandler struct {
	Cfg    config.Config
	Users  UserStore
	Tokens TokenStore
}

func NewAuthHandler(cfg config.Config, users UserStore, tokens TokenStore) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Tokens: tokens}
}

// refreshCookieName is the cookie carrying the raw refresh token.  The
// cookie is httpOnly and SameSite=None so a browser front end on another
// origin can hold a session without ever exposing the token to scripts.
const refreshCookieName = "refreshToken"

// ----- DTOs -----

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerReq struct {
	Username    string   `json:"username"`
	Password    string   `json:"password"`
	Roles       []string `json:"roles"`
	CompanyName *string  `json:"companyName"`
}

func (h *AuthHandler) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	}
}

// Login verifies credentials and emits a token pair: the access token in
// the body, the refresh token in the cookie.  Unknown username and wrong
// password produce the same 401.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	u, err := h.Users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := auth.IssueAccessToken(h.Cfg.JWTSecret, u.Username, auth.NewRoleSet(u.Roles...),
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.Store(ctx, u.ID, auth.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}

	c.SetCookie(h.refreshCookie(refresh.Raw, h.Cfg.RefreshTTLDays*86400))
	return c.JSON(http.StatusOK, access)
}

// Refresh exchanges the refresh cookie for a new token pair.  Rotation is
// mandatory and one-shot: the presented token is revoked and replaced, and
// presenting it again always fails.  A found-but-unusable token is revoked
// once more defensively, which makes replay of a stolen stale cookie
// visible in the token table.
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	hash := auth.HashRefreshRaw(cookie.Value)

	ctx, cancel := reqContext(c)
	defer cancel()

	stored, err := h.Tokens.FindByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !stored.Usable(time.Now().UTC()) {
		_ = h.Tokens.Revoke(ctx, hash)
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	u, err := h.Users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}

	next, err := auth.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.Rotate(ctx, stored, auth.HashRefreshRaw(next.Raw), next.Exp); err != nil {
		if errors.Is(err, repository.ErrTokenRotated) {
			// Lost the race against a concurrent refresh on the same cookie.
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate failed"})
	}

	access, err := auth.IssueAccessToken(h.Cfg.JWTSecret, u.Username, auth.NewRoleSet(u.Roles...),
		time.Duration(h.Cfg.AccessTTLMin)*time.Minute)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}

	c.SetCookie(h.refreshCookie(next.Raw, h.Cfg.RefreshTTLDays*86400))
	return c.JSON(http.StatusOK, access)
}

// Register serves both anonymous self-registration and privileged account
// creation on the same endpoint; the registration policy decides what the
// caller may create.  Anonymous callers get a plain USER account and
// nothing else.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	var caller *auth.Principal
	if _, ok := middleware.CurrentPrincipal(c); ok {
		// Enrich the token principal with the stored company and roles.
		_, p, err := currentUser(c, h.Users)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		caller = &p
	}
	return h.register(c, caller, req)
}

// RegisterAdmin creates an ADMIN account.  The route is gated to ADMIN
// callers; the requested roles are overridden before the shared
// registration flow runs.
func (h *AuthHandler) RegisterAdmin(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Roles = []string{auth.RoleAdmin}

	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return h.register(c, &p, req)
}

func (h *AuthHandler) register(c echo.Context, caller *auth.Principal, req registerReq) error {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	reg, err := auth.CheckRegistration(caller, req.Roles, req.CompanyName)
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

	return c.JSON(http.StatusCreated, userView{
		ID:          id,
		Username:    req.Username,
		CompanyName: reg.Company,
		Roles:       reg.Roles,
	})
}

// Me returns the public view of the caller's own user record.  A valid
// token whose subject was deleted in the meantime yields 404.
func (h *AuthHandler) Me(c echo.Context) error {
	u, _, err := currentUser(c, h.Users)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, newUserView(u))
}

// Logout revokes the presented refresh token, if any, and clears the
// cookie.  Revoking is idempotent, so logging out twice with the same
// cookie succeeds both times.
func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		ctx, cancel := reqContext(c)
		defer cancel()
		_ = h.Tokens.Revoke(ctx, auth.HashRefreshRaw(cookie.Value))
	}
	c.SetCookie(h.refreshCookie("", -1))
	return c.NoContent(http.StatusNoContent)
}
