package handler

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/middleware"
	"github.com/luizfprog/betesportes-api/internal/repository"
)

// UserStore is the user persistence surface the handlers need.  The
// repository.UserRepo satisfies it; tests plug in an in-memory fake.
type UserStore interface {
	Create(ctx context.Context, username, passwordHash string, company *string, roles []string) (uint64, error)
	GetByUsername(ctx context.Context, username string) (repository.User, error)
	GetByID(ctx context.Context, id uint64) (repository.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	List(ctx context.Context, scope auth.Scope) ([]repository.User, error)
	Update(ctx context.Context, u repository.User) error
	Delete(ctx context.Context, id uint64) error
}

// TokenStore is the refresh-token persistence surface, satisfied by
// repository.TokenRepo.
type TokenStore interface {
	Store(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error
	FindByHash(ctx context.Context, tokenHash string) (repository.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	Rotate(ctx context.Context, old repository.RefreshToken, newHash string, newExp time.Time) error
}

// dbTimeout bounds every database round trip made on behalf of a request.
const dbTimeout = 5 * time.Second

func reqContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// errNoPrincipal is returned by currentUser when the request carries no
// authenticated principal at all.
var errNoPrincipal = errors.New("no authenticated principal")

// principalOf turns a stored user record into the principal used for policy
// checks: company and roles come from the database, not from the token, so
// privilege changes take effect without waiting for the token to expire.
func principalOf(u repository.User) auth.Principal {
	return auth.Principal{Username: u.Username, Company: u.CompanyName, Roles: auth.NewRoleSet(u.Roles...)}
}

// currentUser resolves the caller's backing user record.  A token whose
// subject no longer maps to a user yields repository.ErrNotFound; the
// caller decides whether that is a 401 or a 404.
func currentUser(c echo.Context, users UserStore) (repository.User, auth.Principal, error) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		return repository.User{}, auth.Principal{}, errNoPrincipal
	}
	ctx, cancel := reqContext(c)
	defer cancel()
	u, err := users.GetByUsername(ctx, p.Username)
	if err != nil {
		return repository.User{}, auth.Principal{}, err
	}
	return u, principalOf(u), nil
}

// userView is the public projection of a user record; it never carries the
// password hash.
type userView struct {
	ID          uint64   `json:"id"`
	Username    string   `json:"username"`
	CompanyName *string  `json:"companyName"`
	Roles       []string `json:"roles"`
}

func newUserView(u repository.User) userView {
	return userView{ID: u.ID, Username: u.Username, CompanyName: u.CompanyName, Roles: u.Roles}
}
