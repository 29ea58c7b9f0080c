package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luizfprog/betesportes-api/internal/auth"
)

func newTicketRepo(t *testing.T) (*TicketRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewTicketRepo(db), mock
}

func TestTicketListEmptyScopeSkipsDatabase(t *testing.T) {
	repo, mock := newTicketRepo(t)

	out, err := repo.List(context.Background(), auth.Scope{})
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketListCompanyScope(t *testing.T) {
	repo, mock := newTicketRepo(t)
	company := "acme"
	owner := uint64(5)

	rows := sqlmock.NewRows([]string{"id", "bet_amount", "odd", "ticket_link", "green_vote", "red_vote", "created_at", "owner_id", "company_name"}).
		AddRow(1, 25.0, 3.2, "http://t/1", 4, 1, time.Now(), owner, company)
	mock.ExpectQuery("SELECT t.id, t.bet_amount, t.odd, t.ticket_link, t.green_vote, t.red_vote, t.created_at, t.owner_id, u.company_name FROM tickets t").
		WithArgs("acme").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT bet_id FROM ticket_bet").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"bet_id"}).AddRow(10).AddRow(11))

	out, err := repo.List(context.Background(), auth.Scope{Company: "acme"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, []uint64{10, 11}, out[0].BetIDs)
	assert.Equal(t, "acme", *out[0].OwnerCompany)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketCreateWritesJoinRows(t *testing.T) {
	repo, mock := newTicketRepo(t)
	owner := uint64(5)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO tickets").
		WithArgs(50.0, 2.5, "http://t/9", 0, 0, &owner).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO ticket_bet").
		WithArgs(uint64(9), uint64(10)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO ticket_bet").
		WithArgs(uint64(9), uint64(11)).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	tk := &Ticket{BetIDs: []uint64{10, 11}, BetAmount: 50, Odd: 2.5, TicketLink: "http://t/9", OwnerID: &owner}
	require.NoError(t, repo.Create(context.Background(), tk))
	assert.Equal(t, uint64(9), tk.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Membership in the daily summary follows the match kick-off date, not the
// slip's creation time: the query must filter on the joined match start.
func TestVotesSummaryFiltersByMatchStartDay(t *testing.T) {
	repo, mock := newTicketRepo(t)
	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(t.green_vote\),0\), COALESCE\(SUM\(t.red_vote\),0\).+WHERE EXISTS \(SELECT 1 FROM ticket_bet tb.+JOIN matches m.+DATE\(m\.start_time\) = \?`).
		WithArgs("2026-08-28", "acme").
		WillReturnRows(sqlmock.NewRows([]string{"g", "r"}).AddRow(12, 3))

	s, err := repo.VotesSummary(context.Background(), auth.Scope{Company: "acme"}, day)
	require.NoError(t, err)
	assert.Equal(t, int64(12), s.TotalGreenVotes)
	assert.Equal(t, int64(3), s.TotalRedVotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A slip combining several bets still shows up as finished once a match on
// it is over; there is no single-bet restriction on the finished listing.
func TestTicketListFinishedIncludesMultiBetTickets(t *testing.T) {
	repo, mock := newTicketRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "bet_amount", "odd", "ticket_link", "green_vote", "red_vote", "created_at", "owner_id", "company_name"}).
		AddRow(1, 25.0, 7.5, "http://t/1", 0, 0, now, 5, "acme")
	mock.ExpectQuery(`(?s)FROM tickets t.+WHERE EXISTS \(SELECT 1 FROM ticket_bet tb.+m\.estimated_end_time < \?\)`).
		WithArgs(now).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT bet_id FROM ticket_bet").
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"bet_id"}).AddRow(10).AddRow(11).AddRow(12))

	out, err := repo.ListFinished(context.Background(), auth.Scope{All: true}, now)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].BetIDs, 3)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The ongoing listing counts live bets only: a multi-bet slip with exactly
// one match in play qualifies, so the count subquery must join down to the
// match time window instead of counting every bet on the slip.
func TestTicketListOngoingCountsOnlyLiveBets(t *testing.T) {
	repo, mock := newTicketRepo(t)
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"id", "bet_amount", "odd", "ticket_link", "green_vote", "red_vote", "created_at", "owner_id", "company_name"}).
		AddRow(2, 10.0, 4.0, "http://t/2", 1, 0, now, 5, "acme")
	mock.ExpectQuery(`(?s)FROM tickets t.+WHERE \(SELECT COUNT\(\*\) FROM ticket_bet tb.+JOIN bets b.+m\.start_time <= \? AND m\.estimated_end_time >= \?\) = 1`).
		WithArgs(now, now).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT bet_id FROM ticket_bet").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"bet_id"}).AddRow(20).AddRow(21))

	out, err := repo.ListOngoing(context.Background(), auth.Scope{All: true}, now)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Len(t, out[0].BetIDs, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVotesSummaryEmptyScope(t *testing.T) {
	repo, mock := newTicketRepo(t)

	s, err := repo.VotesSummary(context.Background(), auth.Scope{}, time.Now())
	require.NoError(t, err)
	assert.Zero(t, s.TotalGreenVotes)
	assert.Zero(t, s.TotalRedVotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}
