package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/repository"
)

type BetHandler struct {
	Bets    *repository.BetRepo
	Matches *repository.MatchRepo
	Users   UserStore
}

func NewBetHandler(bets *repository.BetRepo, matches *repository.MatchRepo, users UserStore) *BetHandler {
	return &BetHandler{Bets: bets, Matches: matches, Users: users}
}

type betReq struct {
	MatchID        uint64 `json:"matchId"`
	BetType        string `json:"betType"`
	BetChoice      string `json:"betChoice"`
	BetDescription string `json:"betDescription"`
	EarlyPayment   *bool  `json:"earlyPayment"`
}

func (h *BetHandler) List(c echo.Context) error {
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	bets, err := h.Bets.List(ctx, auth.VisibleScope(p))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if bets == nil {
		bets = []*repository.Bet{}
	}
	return c.JSON(http.StatusOK, bets)
}

func (h *BetHandler) Get(c echo.Context) error {
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

	b, err := h.Bets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsAdmin() && !auth.CanModifyRecord(p, b.OwnerCompany) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "bet not found"})
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BetHandler) Create(c echo.Context) error {
	var req betReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.MatchID == 0 || strings.TrimSpace(req.BetType) == "" || strings.TrimSpace(req.BetChoice) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "matchId, betType and betChoice required"})
	}
	u, _, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	if _, err := h.Matches.GetByID(ctx, req.MatchID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown match"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	b := &repository.Bet{
		MatchID:        req.MatchID,
		BetType:        req.BetType,
		BetChoice:      req.BetChoice,
		BetDescription: req.BetDescription,
		EarlyPayment:   req.EarlyPayment,
		OwnerID:        &u.ID,
	}
	if err := h.Bets.Create(ctx, b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create bet failed"})
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BetHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req betReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	b, err := h.Bets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, b.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if req.MatchID != 0 {
		if _, err := h.Matches.GetByID(ctx, req.MatchID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown match"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		b.MatchID = req.MatchID
	}
	if req.BetType != "" {
		b.BetType = req.BetType
	}
	if req.BetChoice != "" {
		b.BetChoice = req.BetChoice
	}
	if req.BetDescription != "" {
		b.BetDescription = req.BetDescription
	}
	if req.EarlyPayment != nil {
		b.EarlyPayment = req.EarlyPayment
	}

	if err := h.Bets.Update(ctx, b); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, b)
}

func (h *BetHandler) Delete(c echo.Context) error {
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

	b, err := h.Bets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "bet not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, b.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Bets.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
