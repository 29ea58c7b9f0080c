package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// Team mirrors the 'teams' table.  OwnerCompany is read through the owner
// join and never serialized; it only feeds write checks.
type Team struct {
	ID           uint64  `json:"id"`
	Name         string  `json:"name"`
	CrestLink    string  `json:"crestLink"`
	League       string  `json:"league"`
	OwnerID      *uint64 `json:"ownerId"`
	OwnerCompany *string `json:"-"`
}

type TeamRepo struct{ DB *sql.DB }

func NewTeamRepo(db *sql.DB) *TeamRepo { return &TeamRepo{DB: db} }

func (r *TeamRepo) Create(ctx context.Context, t *Team) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO teams (name, crest_link, league, owner_id) VALUES (?,?,?,?)",
		t.Name, t.CrestLink, t.League, t.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	return nil
}

func (r *TeamRepo) GetByID(ctx context.Context, id uint64) (*Team, error) {
	const q = `SELECT t.id, t.name, t.crest_link, t.league, t.owner_id, u.company_name
	           FROM teams t LEFT JOIN app_user u ON t.owner_id = u.id WHERE t.id = ?`
	var t Team
	err := r.DB.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.Name, &t.CrestLink, &t.League, &t.OwnerID, &t.OwnerCompany)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TeamRepo) List(ctx context.Context, scope auth.Scope) ([]*Team, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := `SELECT t.id, t.name, t.crest_link, t.league, t.owner_id, u.company_name
	      FROM teams t LEFT JOIN app_user u ON t.owner_id = u.id`
	where, args := ownerScopeClause(scope)
	rows, err := r.DB.QueryContext(ctx, q+where+" ORDER BY t.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Team
	for rows.Next() {
		t := new(Team)
		if err := rows.Scan(&t.ID, &t.Name, &t.CrestLink, &t.League, &t.OwnerID, &t.OwnerCompany); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TeamRepo) Update(ctx context.Context, t *Team) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE teams SET name=?, crest_link=?, league=? WHERE id=?",
		t.Name, t.CrestLink, t.League, t.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TeamRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM teams WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
