package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func userRows(id uint64, username string, company *string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "username", "password_hash", "company_name", "created_at", "updated_at"}).
		AddRow(id, username, "hash", company, now, now)
}

func TestUserRepoCreate(t *testing.T) {
	repo, mock := newUserRepo(t)
	company := "acme"

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO app_user").
		WithArgs("alice", "hash", &company).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO user_roles").
		WithArgs(int64(5), auth.RoleUser).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	id, err := repo.Create(context.Background(), "alice", "hash", &company, []string{auth.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, uint64(5), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicateUsername(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO app_user").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'alice' for key 'username'"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), "alice", "hash", nil, []string{auth.RoleUser})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserRepoGetByUsername(t *testing.T) {
	repo, mock := newUserRepo(t)
	company := "acme"

	mock.ExpectQuery("SELECT id,username,password_hash,company_name,created_at,updated_at FROM app_user WHERE username=").
		WithArgs("alice").
		WillReturnRows(userRows(5, "alice", &company))
	mock.ExpectQuery("SELECT role FROM user_roles").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow(auth.RoleManager).AddRow(auth.RoleUser))

	u, err := repo.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, uint64(5), u.ID)
	assert.Equal(t, "acme", *u.CompanyName)
	assert.Equal(t, []string{auth.RoleManager, auth.RoleUser}, u.Roles)
}

func TestUserRepoGetByUsernameNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery("SELECT id,username,password_hash,company_name,created_at,updated_at FROM app_user WHERE username=").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "company_name", "created_at", "updated_at"}))

	_, err := repo.GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepoListScopes(t *testing.T) {
	repo, mock := newUserRepo(t)

	// Empty scope never touches the database.
	out, err := repo.List(context.Background(), auth.Scope{})
	require.NoError(t, err)
	assert.Nil(t, out)

	// Company scope filters on company_name.
	company := "acme"
	mock.ExpectQuery("SELECT id,username,password_hash,company_name,created_at,updated_at FROM app_user WHERE company_name=").
		WithArgs("acme").
		WillReturnRows(userRows(5, "alice", &company))
	mock.ExpectQuery("SELECT role FROM user_roles").
		WithArgs(uint64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow(auth.RoleUser))

	out, err = repo.List(context.Background(), auth.Scope{Company: "acme"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "alice", out[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoDeleteNotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM user_roles").
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM app_user").
		WithArgs(uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
