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

// MarketHandler serves the bet-market catalogue, the second block of public
// reference data next to teams.  Same shape: public reads, admin mutations.
type MarketHandler struct {
	Markets *repository.MarketRepo
	Users   UserStore
}

func NewMarketHandler(markets *repository.MarketRepo, users UserStore) *MarketHandler {
	return &MarketHandler{Markets: markets, Users: users}
}

type marketReq struct {
	Name    string   `json:"name"`
	Choices []string `json:"choices"`
}

func (h *MarketHandler) List(c echo.Context) error {
	ctx, cancel := reqContext(c)
	defer cancel()

	markets, err := h.Markets.List(ctx, auth.Scope{All: true})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if markets == nil {
		markets = []*repository.Market{}
	}
	return c.JSON(http.StatusOK, markets)
}

func (h *MarketHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Markets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "market not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MarketHandler) Create(c echo.Context) error {
	var req marketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}
	u, _, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m := &repository.Market{Name: req.Name, Choices: req.Choices, OwnerID: &u.ID}
	if err := h.Markets.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create market failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *MarketHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req marketReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Markets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "market not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if n := strings.TrimSpace(req.Name); n != "" {
		m.Name = n
	}
	if req.Choices != nil {
		m.Choices = req.Choices
	}
	if err := h.Markets.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "market not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MarketHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	if err := h.Markets.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "market not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
