package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/queue"
	"github.com/luizfprog/betesportes-api/internal/repository"
)

// TicketPublisher pushes ticket lifecycle events to the broker.  Nil is a
// valid value for deployments without a broker.
type TicketPublisher interface {
	PublishTicketCreated(ev queue.TicketCreatedEvent) error
}

type TicketHandler struct {
	Tickets   *repository.TicketRepo
	Bets      *repository.BetRepo
	Users     UserStore
	Publisher TicketPublisher
}

func NewTicketHandler(tickets *repository.TicketRepo, bets *repository.BetRepo, users UserStore, pub TicketPublisher) *TicketHandler {
	return &TicketHandler{Tickets: tickets, Bets: bets, Users: users, Publisher: pub}
}

type ticketReq struct {
	BetIDs     []uint64 `json:"betIds"`
	BetAmount  *float64 `json:"betAmount"`
	Odd        *float64 `json:"odd"`
	TicketLink string   `json:"ticketLink"`
	GreenVote  *int     `json:"greenVote"`
	RedVote    *int     `json:"redVote"`
}

func (h *TicketHandler) List(c echo.Context) error {
	return h.listWith(c, h.Tickets.List)
}

// ListUpcoming narrows the listing to tickets with a bet on a match that has
// not kicked off yet.
func (h *TicketHandler) ListUpcoming(c echo.Context) error {
	return h.listWith(c, func(ctx context.Context, scope auth.Scope) ([]*repository.Ticket, error) {
		return h.Tickets.ListUpcoming(ctx, scope, time.Now().UTC())
	})
}

func (h *TicketHandler) ListOngoing(c echo.Context) error {
	return h.listWith(c, func(ctx context.Context, scope auth.Scope) ([]*repository.Ticket, error) {
		return h.Tickets.ListOngoing(ctx, scope, time.Now().UTC())
	})
}

func (h *TicketHandler) ListFinished(c echo.Context) error {
	return h.listWith(c, func(ctx context.Context, scope auth.Scope) ([]*repository.Ticket, error) {
		return h.Tickets.ListFinished(ctx, scope, time.Now().UTC())
	})
}

// Votes sums green and red votes across the caller's visible tickets that
// hold a bet on a match starting today.
func (h *TicketHandler) Votes(c echo.Context) error {
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	summary, err := h.Tickets.VotesSummary(ctx, auth.VisibleScope(p), time.Now().UTC())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *TicketHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsAdmin() && !auth.CanModifyRecord(p, t.OwnerCompany) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Create(c echo.Context) error {
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.BetIDs) == 0 || req.BetAmount == nil || req.Odd == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "betIds, betAmount and odd required"})
	}
	u, _, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	for _, betID := range req.BetIDs {
		if _, err := h.Bets.GetByID(ctx, betID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown bet"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
	}

	t := &repository.Ticket{
		BetIDs:     req.BetIDs,
		BetAmount:  *req.BetAmount,
		Odd:        *req.Odd,
		TicketLink: req.TicketLink,
		OwnerID:    &u.ID,
	}
	if req.GreenVote != nil {
		t.GreenVote = *req.GreenVote
	}
	if req.RedVote != nil {
		t.RedVote = *req.RedVote
	}
	if err := h.Tickets.Create(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create ticket failed"})
	}

	if h.Publisher != nil {
		ev := queue.TicketCreatedEvent{
			TicketID:  t.ID,
			Owner:     u.Username,
			BetIDs:    t.BetIDs,
			BetAmount: t.BetAmount,
			Odd:       t.Odd,
			CreatedAt: time.Now().UTC(),
		}
		// Fire and forget; the slip is already persisted.
		if err := h.Publisher.PublishTicketCreated(ev); err != nil {
			c.Logger().Warnf("ticket %d created but event publish failed: %v", t.ID, err)
		}
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *TicketHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req ticketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, t.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if len(req.BetIDs) > 0 {
		for _, betID := range req.BetIDs {
			if _, err := h.Bets.GetByID(ctx, betID); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown bet"})
				}
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
			}
		}
		t.BetIDs = req.BetIDs
	}
	if req.BetAmount != nil {
		t.BetAmount = *req.BetAmount
	}
	if req.Odd != nil {
		t.Odd = *req.Odd
	}
	if req.TicketLink != "" {
		t.TicketLink = req.TicketLink
	}
	if req.GreenVote != nil {
		t.GreenVote = *req.GreenVote
	}
	if req.RedVote != nil {
		t.RedVote = *req.RedVote
	}

	if err := h.Tickets.Update(ctx, t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, t)
}

func (h *TicketHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	t, err := h.Tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, t.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Tickets.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *TicketHandler) listWith(c echo.Context, list func(context.Context, auth.Scope) ([]*repository.Ticket, error)) error {
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	tickets, err := list(ctx, auth.VisibleScope(p))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if tickets == nil {
		tickets = []*repository.Ticket{}
	}
	return c.JSON(http.StatusOK, tickets)
}
