package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

// Ticket mirrors the 'tickets' table.  The bets combined on the slip live
// in the 'ticket_bet' join table.  Green and red votes are community
// predictions on whether the slip will hit.
type Ticket struct {
	ID           uint64    `json:"id"`
	BetIDs       []uint64  `json:"betIds"`
	BetAmount    float64   `json:"betAmount"`
	Odd          float64   `json:"odd"`
	TicketLink   string    `json:"ticketLink"`
	GreenVote    int       `json:"greenVote"`
	RedVote      int       `json:"redVote"`
	CreatedAt    time.Time `json:"createdAt"`
	OwnerID      *uint64   `json:"ownerId"`
	OwnerCompany *string   `json:"-"`
}

// VotesSummary aggregates a day's ticket votes.
type VotesSummary struct {
	TotalGreenVotes int64 `json:"totalGreenVotes"`
	TotalRedVotes   int64 `json:"totalRedVotes"`
}

type TicketRepo struct{ DB *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{DB: db} }

const ticketCols = "t.id, t.bet_amount, t.odd, t.ticket_link, t.green_vote, t.red_vote, t.created_at, t.owner_id, u.company_name"

func (r *TicketRepo) Create(ctx context.Context, t *Ticket) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO tickets (bet_amount, odd, ticket_link, green_vote, red_vote, owner_id) VALUES (?,?,?,?,?,?)",
		t.BetAmount, t.Odd, t.TicketLink, t.GreenVote, t.RedVote, t.OwnerID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	for _, betID := range t.BetIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ticket_bet (ticket_id, bet_id) VALUES (?,?)", t.ID, betID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*Ticket, error) {
	q := "SELECT " + ticketCols + " FROM tickets t LEFT JOIN app_user u ON t.owner_id = u.id WHERE t.id = ?"
	var t Ticket
	err := r.DB.QueryRowContext(ctx, q, id).
		Scan(&t.ID, &t.BetAmount, &t.Odd, &t.TicketLink, &t.GreenVote, &t.RedVote, &t.CreatedAt, &t.OwnerID, &t.OwnerCompany)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if t.BetIDs, err = r.loadBetIDs(ctx, t.ID); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TicketRepo) List(ctx context.Context, scope auth.Scope) ([]*Ticket, error) {
	return r.list(ctx, scope, "", nil)
}

// ListUpcoming returns tickets holding at least one bet whose match has not
// started yet.
func (r *TicketRepo) ListUpcoming(ctx context.Context, scope auth.Scope, now time.Time) ([]*Ticket, error) {
	cond := `EXISTS (SELECT 1 FROM ticket_bet tb
	           JOIN bets b ON tb.bet_id = b.id
	           JOIN matches m ON b.match_id = m.id
	           WHERE tb.ticket_id = t.id AND m.start_time > ?)`
	return r.list(ctx, scope, cond, []interface{}{now})
}

// ListOngoing returns tickets with exactly one bet on a match currently
// being played.  Only the in-play bets count toward the limit; a multi-bet
// slip with a single live match still qualifies.
func (r *TicketRepo) ListOngoing(ctx context.Context, scope auth.Scope, now time.Time) ([]*Ticket, error) {
	cond := `(SELECT COUNT(*) FROM ticket_bet tb
	           JOIN bets b ON tb.bet_id = b.id
	           JOIN matches m ON b.match_id = m.id
	           WHERE tb.ticket_id = t.id AND m.start_time <= ? AND m.estimated_end_time >= ?) = 1`
	return r.list(ctx, scope, cond, []interface{}{now, now})
}

// ListFinished returns tickets holding at least one bet whose match is over.
func (r *TicketRepo) ListFinished(ctx context.Context, scope auth.Scope, now time.Time) ([]*Ticket, error) {
	cond := `EXISTS (SELECT 1 FROM ticket_bet tb
	           JOIN bets b ON tb.bet_id = b.id
	           JOIN matches m ON b.match_id = m.id
	           WHERE tb.ticket_id = t.id AND m.estimated_end_time < ?)`
	return r.list(ctx, scope, cond, []interface{}{now})
}

// VotesSummary sums green and red votes over tickets holding a bet on a
// match that starts on the given day, restricted to the visible scope.  The
// match kick-off decides membership, not when the slip was created.
func (r *TicketRepo) VotesSummary(ctx context.Context, scope auth.Scope, day time.Time) (VotesSummary, error) {
	var s VotesSummary
	if scope.Empty() {
		return s, nil
	}
	q := `SELECT COALESCE(SUM(t.green_vote),0), COALESCE(SUM(t.red_vote),0)
	      FROM tickets t LEFT JOIN app_user u ON t.owner_id = u.id
	      WHERE EXISTS (SELECT 1 FROM ticket_bet tb
	        JOIN bets b ON tb.bet_id = b.id
	        JOIN matches m ON b.match_id = m.id
	        WHERE tb.ticket_id = t.id AND DATE(m.start_time) = ?)`
	args := []interface{}{day.Format("2006-01-02")}
	if !scope.All {
		q += " AND u.company_name = ?"
		args = append(args, scope.Company)
	}
	err := r.DB.QueryRowContext(ctx, q, args...).Scan(&s.TotalGreenVotes, &s.TotalRedVotes)
	return s, err
}

func (r *TicketRepo) Update(ctx context.Context, t *Ticket) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE tickets SET bet_amount=?, odd=?, ticket_link=?, green_vote=?, red_vote=? WHERE id=?",
		t.BetAmount, t.Odd, t.TicketLink, t.GreenVote, t.RedVote, t.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_bet WHERE ticket_id=?", t.ID); err != nil {
		return err
	}
	for _, betID := range t.BetIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ticket_bet (ticket_id, bet_id) VALUES (?,?)", t.ID, betID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *TicketRepo) Delete(ctx context.Context, id uint64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ticket_bet WHERE ticket_id=?", id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM tickets WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func (r *TicketRepo) list(ctx context.Context, scope auth.Scope, cond string, condArgs []interface{}) ([]*Ticket, error) {
	if scope.Empty() {
		return nil, nil
	}
	q := "SELECT " + ticketCols + " FROM tickets t LEFT JOIN app_user u ON t.owner_id = u.id"
	var args []interface{}
	where, scopeArgs := ownerScopeClause(scope)
	q += where
	args = append(args, scopeArgs...)
	if cond != "" {
		if where == "" {
			q += " WHERE " + cond
		} else {
			q += " AND " + cond
		}
		args = append(args, condArgs...)
	}
	q += " ORDER BY t.id"

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Ticket
	for rows.Next() {
		t := new(Ticket)
		if err := rows.Scan(&t.ID, &t.BetAmount, &t.Odd, &t.TicketLink, &t.GreenVote, &t.RedVote, &t.CreatedAt, &t.OwnerID, &t.OwnerCompany); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, t := range out {
		if t.BetIDs, err = r.loadBetIDs(ctx, t.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *TicketRepo) loadBetIDs(ctx context.Context, ticketID uint64) ([]uint64, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT bet_id FROM ticket_bet WHERE ticket_id=? ORDER BY bet_id", ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
