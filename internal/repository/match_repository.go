package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// Match mirrors the 'matches' table.  Team references are kept as plain ids;
// handlers validate them against the team repo before writing.
type Match struct {
	ID               uint64    `json:"id"`
	TeamHomeID       uint64    `json:"teamHomeId"`
	TeamGuestID      uint64    `json:"teamGuestId"`
	StartTime        time.Time `json:"startTime"`
	EstimatedEndTime time.Time `json:"estimatedEndTime"`
	OwnerID          *uint64   `json:"ownerId"`
	OwnerCompany     *string   `json:"-"`
}

type MatchRepo struct{ DB *sql.DB }

func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{DB: db} }

func (r *MatchRepo) Create(ctx context.Context, m *Match) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO matches (team_home_id, team_guest_id, start_time, estimated_end_time, owner_id) VALUES (?,?,?,?,?)",
		m.TeamHomeID, m.TeamGuestID, m.StartTime, m.EstimatedEndTime, m.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return nil
}

func (r *MatchRepo) GetByID(ctx context.Context, id uint64) (*Match, error) {
	const q = `SELECT m.id, m.team_home_id, m.team_guest_id, m.start_time, m.estimated_end_time, m.owner_id, u.company_name
	           FROM matches m LEFT JOIN app_user u ON m.owner_id = u.id WHERE m.id = ?`
	var m Match
	err := r.DB.QueryRowContext(ctx, q, id).
		Scan(&m.ID, &m.TeamHomeID, &m.TeamGuestID, &m.StartTime, &m.EstimatedEndTime, &m.OwnerID, &m.OwnerCompany)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MatchRepo) List(ctx context.Context, scope auth.Scope) ([]*Match, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := `SELECT m.id, m.team_home_id, m.team_guest_id, m.start_time, m.estimated_end_time, m.owner_id, u.company_name
	      FROM matches m LEFT JOIN app_user u ON m.owner_id = u.id`
	where, args := ownerScopeClause(scope)
	rows, err := r.DB.QueryContext(ctx, q+where+" ORDER BY m.start_time", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Match
	for rows.Next() {
		m := new(Match)
		if err := rows.Scan(&m.ID, &m.TeamHomeID, &m.TeamGuestID, &m.StartTime, &m.EstimatedEndTime, &m.OwnerID, &m.OwnerCompany); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MatchRepo) Update(ctx context.Context, m *Match) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE matches SET team_home_id=?, team_guest_id=?, start_time=?, estimated_end_time=? WHERE id=?",
		m.TeamHomeID, m.TeamGuestID, m.StartTime, m.EstimatedEndTime, m.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MatchRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM matches WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
