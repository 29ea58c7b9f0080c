package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// User mirrors the 'app_user' table plus its role rows from 'user_roles'.
// Roles always hold canonical ROLE_ prefixed names.  CompanyName is nil for
// users outside any company; such users own only what they created and see
// nothing company-scoped.
type User struct {
	ID           uint64    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CompanyName  *string   `json:"companyName"`
	Roles        []string  `json:"roles"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and its role rows in one transaction and returns
// the new ID.  Roles are stored exactly as given; callers normalize first.
func (r *UserRepo) Create(ctx context.Context, username, passwordHash string, company *string, roles []string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO app_user (username, password_hash, company_name) VALUES (?,?,?)",
		username, passwordHash, company)
	if err != nil {
		if isDuplicate(err) {
			return 0, ErrUsernameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role) VALUES (?,?)", id, role); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user and its roles by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (User, error) {
	return r.getOne(ctx, "username=?", username)
}

// GetByID fetches a user and its roles by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (User, error) {
	return r.getOne(ctx, "id=?", id)
}

func (r *UserRepo) getOne(ctx context.Context, where string, arg interface{}) (User, error) {
	var u User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id,username,password_hash,company_name,created_at,updated_at FROM app_user WHERE "+where+" LIMIT 1",
		arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CompanyName, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if u.Roles, err = r.loadRoles(ctx, u.ID); err != nil {
		return User{}, err
	}
	return u, nil
}

// ExistsByUsername reports whether a user with the given username exists.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM app_user WHERE username=? LIMIT 1", username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns the users visible in the given scope ordered by id: every
// user for an all scope, the company's users for a company scope, and
// nothing for an empty scope.
func (r *UserRepo) List(ctx context.Context, scope auth.Scope) ([]User, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := "SELECT id,username,password_hash,company_name,created_at,updated_at FROM app_user"
	var args []interface{}
	if !scope.All {
		q += " WHERE company_name=?"
		args = append(args, scope.Company)
	}
	q += " ORDER BY id"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CompanyName, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Roles, err = r.loadRoles(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Update replaces the user's row and role set.  The caller passes the full
// desired state; partial-update merging happens in the handler.
func (r *UserRepo) Update(ctx context.Context, u User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE app_user SET username=?, password_hash=?, company_name=? WHERE id=?",
		u.Username, u.PasswordHash, u.CompanyName, u.ID); err != nil {
		if isDuplicate(err) {
			return ErrUsernameTaken
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", u.ID); err != nil {
		return err
	}
	for _, role := range u.Roles {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role) VALUES (?,?)", u.ID, role); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Delete removes a user and its role rows.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM user_roles WHERE user_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM app_user WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *UserRepo) loadRoles(ctx context.Context, userID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT role FROM user_roles WHERE user_id=? ORDER BY role", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []string
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// isDuplicate detects the MySQL duplicate-key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(err.Error(), "1062")
}
