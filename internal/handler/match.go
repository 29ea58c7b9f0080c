package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/luizfprog/betesportes-api/internal/auth"
	"github.com/luizfprog/betesportes-api/internal/repository"
)

type MatchHandler struct {
	Matches *repository.MatchRepo
	Teams   *repository.TeamRepo
	Users   UserStore
}

func NewMatchHandler(matches *repository.MatchRepo, teams *repository.TeamRepo, users UserStore) *MatchHandler {
	return &MatchHandler{Matches: matches, Teams: teams, Users: users}
}

type matchReq struct {
	TeamHomeID       uint64     `json:"teamHomeId"`
	TeamGuestID      uint64     `json:"teamGuestId"`
	StartTime        *time.Time `json:"startTime"`
	EstimatedEndTime *time.Time `json:"estimatedEndTime"`
}

func (h *MatchHandler) List(c echo.Context) error {
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	matches, err := h.Matches.List(ctx, auth.VisibleScope(p))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if matches == nil {
		matches = []*repository.Match{}
	}
	return c.JSON(http.StatusOK, matches)
}

func (h *MatchHandler) Get(c echo.Context) error {
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

	m, err := h.Matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsAdmin() && !auth.CanModifyRecord(p, m.OwnerCompany) {
		// Out-of-scope records look like they do not exist.
		return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
	}
	return c.JSON(http.StatusOK, m)
}

// teamExists validates a foreign key before insert so a bad reference comes
// back as a 400 rather than a driver error.
func (h *MatchHandler) teamExists(c echo.Context, id uint64) (bool, error) {
	ctx, cancel := reqContext(c)
	defer cancel()
	_, err := h.Teams.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (h *MatchHandler) Create(c echo.Context) error {
	var req matchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TeamHomeID == 0 || req.TeamGuestID == 0 || req.StartTime == nil || req.EstimatedEndTime == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "teamHomeId, teamGuestId, startTime and estimatedEndTime required"})
	}
	u, _, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	for _, teamID := range []uint64{req.TeamHomeID, req.TeamGuestID} {
		ok, err := h.teamExists(c, teamID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown team"})
		}
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m := &repository.Match{
		TeamHomeID:       req.TeamHomeID,
		TeamGuestID:      req.TeamGuestID,
		StartTime:        *req.StartTime,
		EstimatedEndTime: *req.EstimatedEndTime,
		OwnerID:          &u.ID,
	}
	if err := h.Matches.Create(ctx, m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create match failed"})
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *MatchHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req matchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	m, err := h.Matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, m.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if req.TeamHomeID != 0 {
		ok, err := h.teamExists(c, req.TeamHomeID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown team"})
		}
		m.TeamHomeID = req.TeamHomeID
	}
	if req.TeamGuestID != 0 {
		ok, err := h.teamExists(c, req.TeamGuestID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown team"})
		}
		m.TeamGuestID = req.TeamGuestID
	}
	if req.StartTime != nil {
		m.StartTime = *req.StartTime
	}
	if req.EstimatedEndTime != nil {
		m.EstimatedEndTime = *req.EstimatedEndTime
	}

	if err := h.Matches.Update(ctx, m); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, m)
}

func (h *MatchHandler) Delete(c echo.Context) error {
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

	m, err := h.Matches.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "match not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, m.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Matches.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
