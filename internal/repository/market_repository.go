package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// Market mirrors the 'markets' table; the selectable choices live in the
// 'market_choices' child table and are replaced wholesale on update.
type Market struct {
	ID           uint64   `json:"id"`
	Name         string   `json:"name"`
	Choices      []string `json:"choices"`
	OwnerID      *uint64  `json:"ownerId"`
	OwnerCompany *string  `json:"-"`
}

type MarketRepo struct{ DB *sql.DB }

func NewMarketRepo(db *sql.DB) *MarketRepo { return &MarketRepo{DB: db} }

func (r *MarketRepo) Create(ctx context.Context, m *Market) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO markets (name, owner_id) VALUES (?,?)", m.Name, m.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	for _, c := range m.Choices {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO market_choices (market_id, choice) VALUES (?,?)", m.ID, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *MarketRepo) GetByID(ctx context.Context, id uint64) (*Market, error) {
	const q = `SELECT m.id, m.name, m.owner_id, u.company_name
	           FROM markets m LEFT JOIN app_user u ON m.owner_id = u.id WHERE m.id = ?`
	var m Market
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Name, &m.OwnerID, &m.OwnerCompany)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if m.Choices, err = r.loadChoices(ctx, m.ID); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MarketRepo) List(ctx context.Context, scope auth.Scope) ([]*Market, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := `SELECT m.id, m.name, m.owner_id, u.company_name
	      FROM markets m LEFT JOIN app_user u ON m.owner_id = u.id`
	where, args := ownerScopeClause(scope)
	rows, err := r.DB.QueryContext(ctx, q+where+" ORDER BY m.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Market
	for rows.Next() {
		m := new(Market)
		if err := rows.Scan(&m.ID, &m.Name, &m.OwnerID, &m.OwnerCompany); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, m := range out {
		if m.Choices, err = r.loadChoices(ctx, m.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *MarketRepo) Update(ctx context.Context, m *Market) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE markets SET name=? WHERE id=?", m.Name, m.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM market_choices WHERE market_id=?", m.ID); err != nil {
		return err
	}
	for _, c := range m.Choices {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO market_choices (market_id, choice) VALUES (?,?)", m.ID, c); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *MarketRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM market_choices WHERE market_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM markets WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *MarketRepo) loadChoices(ctx context.Context, marketID uint64) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT choice FROM market_choices WHERE market_id=? ORDER BY choice", marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
