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

type OfferHandler struct {
	Offers *repository.OfferRepo
	Users  UserStore
}

func NewOfferHandler(offers *repository.OfferRepo, users UserStore) *OfferHandler {
	return &OfferHandler{Offers: offers, Users: users}
}

type offerReq struct {
	Name             string `json:"name"`
	OfferDescription string `json:"offerDescription"`
	OfferImageLink   string `json:"offerImageLink"`
	OfferButtonLink  string `json:"offerButtonLink"`
}

func (h *OfferHandler) List(c echo.Context) error {
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := reqContext(c)
	defer cancel()

	offers, err := h.Offers.List(ctx, auth.VisibleScope(p))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if offers == nil {
		offers = []*repository.Offer{}
	}
	return c.JSON(http.StatusOK, offers)
}

func (h *OfferHandler) Get(c echo.Context) error {
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

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !p.IsAdmin() && !auth.CanModifyRecord(p, o.OwnerCompany) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OfferHandler) Create(c echo.Context) error {
	var req offerReq
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

	o := &repository.Offer{
		Name:             req.Name,
		OfferDescription: req.OfferDescription,
		OfferImageLink:   req.OfferImageLink,
		OfferButtonLink:  req.OfferButtonLink,
		OwnerID:          &u.ID,
	}
	if err := h.Offers.Create(ctx, o); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create offer failed"})
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *OfferHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req offerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	_, p, err := currentUser(c, h.Users)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := reqContext(c)
	defer cancel()

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, o.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if n := strings.TrimSpace(req.Name); n != "" {
		o.Name = n
	}
	if req.OfferDescription != "" {
		o.OfferDescription = req.OfferDescription
	}
	if req.OfferImageLink != "" {
		o.OfferImageLink = req.OfferImageLink
	}
	if req.OfferButtonLink != "" {
		o.OfferButtonLink = req.OfferButtonLink
	}

	if err := h.Offers.Update(ctx, o); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OfferHandler) Delete(c echo.Context) error {
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

	o, err := h.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !auth.CanModifyRecord(p, o.OwnerCompany) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Offers.Delete(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
