package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// Bet mirrors the 'bets' table.  EarlyPayment is tri-state: nil means the
// market does not offer early payout at all.
type Bet struct {
	ID             uint64  `json:"id"`
	MatchID        uint64  `json:"matchId"`
	BetType        string  `json:"betType"`
	BetChoice      string  `json:"betChoice"`
	BetDescription string  `json:"betDescription"`
	EarlyPayment   *bool   `json:"earlyPayment"`
	OwnerID        *uint64 `json:"ownerId"`
	OwnerCompany   *string `json:"-"`
}

type BetRepo struct{ DB *sql.DB }

func NewBetRepo(db *sql.DB) *BetRepo { return &BetRepo{DB: db} }

func (r *BetRepo) Create(ctx context.Context, b *Bet) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO bets (match_id, bet_type, bet_choice, bet_description, early_payment, owner_id) VALUES (?,?,?,?,?,?)",
		b.MatchID, b.BetType, b.BetChoice, b.BetDescription, b.EarlyPayment, b.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

func (r *BetRepo) GetByID(ctx context.Context, id uint64) (*Bet, error) {
	const q = `SELECT b.id, b.match_id, b.bet_type, b.bet_choice, b.bet_description, b.early_payment, b.owner_id, u.company_name
	           FROM bets b LEFT JOIN app_user u ON b.owner_id = u.id WHERE b.id = ?`
	var b Bet
	err := r.DB.QueryRowContext(ctx, q, id).
		Scan(&b.ID, &b.MatchID, &b.BetType, &b.BetChoice, &b.BetDescription, &b.EarlyPayment, &b.OwnerID, &b.OwnerCompany)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BetRepo) List(ctx context.Context, scope auth.Scope) ([]*Bet, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := `SELECT b.id, b.match_id, b.bet_type, b.bet_choice, b.bet_description, b.early_payment, b.owner_id, u.company_name
	      FROM bets b LEFT JOIN app_user u ON b.owner_id = u.id`
	where, args := ownerScopeClause(scope)
	rows, err := r.DB.QueryContext(ctx, q+where+" ORDER BY b.id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Bet
	for rows.Next() {
		b := new(Bet)
		if err := rows.Scan(&b.ID, &b.MatchID, &b.BetType, &b.BetChoice, &b.BetDescription, &b.EarlyPayment, &b.OwnerID, &b.OwnerCompany); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BetRepo) Update(ctx context.Context, b *Bet) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bets SET match_id=?, bet_type=?, bet_choice=?, bet_description=?, early_payment=? WHERE id=?",
		b.MatchID, b.BetType, b.BetChoice, b.BetDescription, b.EarlyPayment, b.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *BetRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM bets WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
