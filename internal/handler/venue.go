package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evreno/event-ticketing/internal/model"
	"github.com/evreno/event-ticketing/internal/repository"
)

// OrganizerHandler bundles repositories for organizers to manage their
// venues, events and ticket tiers.
type OrganizerHandler struct {
	VenueRepo *repository.VenueRepo
	EventRepo *repository.EventRepo
	TierRepo  *repository.TierRepo
}

// NewOrganizerHandler constructs an OrganizerHandler and panics if any
// dependency is nil.
func NewOrganizerHandler(venueRepo *repository.VenueRepo, eventRepo *repository.EventRepo, tierRepo *repository.TierRepo) *OrganizerHandler {
	if venueRepo == nil || eventRepo == nil || tierRepo == nil {
		panic("nil repository passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{VenueRepo: venueRepo, EventRepo: eventRepo, TierRepo: tierRepo}
}

// venueReq carries user-editable venue fields. Layout and Images come from
// the external layout editor and are stored verbatim; the server never
// interprets them beyond checking they are valid JSON.
type venueReq struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	Capacity    uint32          `json:"capacity"`
	Layout      json.RawMessage `json:"layout,omitempty"`
	Images      json.RawMessage `json:"images,omitempty"`
}

type venueResp struct {
	ID          uint64          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	Capacity    uint32          `json:"capacity"`
	Layout      json.RawMessage `json:"layout,omitempty"`
	Images      json.RawMessage `json:"images,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func toVenueResp(v *model.Venue) venueResp {
	return venueResp{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		Address:     v.Address,
		City:        v.City,
		Capacity:    v.Capacity,
		Layout:      v.Layout,
		Images:      v.Images,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// CreateVenue registers a new venue owned by the authenticated organizer.
func (h *OrganizerHandler) CreateVenue(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.City = strings.TrimSpace(req.City)
	if req.Name == "" || req.City == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/city required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v := &model.Venue{
		OrganizerID: uid,
		Name:        req.Name,
		Description: req.Description,
		Address:     strings.TrimSpace(req.Address),
		City:        req.City,
		Capacity:    req.Capacity,
		Layout:      normalizeRawJSON(req.Layout),
		Images:      normalizeRawJSON(req.Images),
	}
	if err := h.VenueRepo.Create(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create venue failed"})
	}
	return c.JSON(http.StatusCreated, toVenueResp(v))
}

// ListMyVenues returns all venues owned by the authenticated organizer.
func (h *OrganizerHandler) ListMyVenues(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.VenueRepo.ListByOwner(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
	}
	out := make([]venueResp, 0, len(venues))
	for i := range venues {
		out = append(out, toVenueResp(&venues[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": out})
}

// GetMyVenue returns one venue, enforcing ownership.
func (h *OrganizerHandler) GetMyVenue(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.VenueRepo.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		switch err {
		case repository.ErrVenueNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue failed"})
	}
	return c.JSON(http.StatusOK, toVenueResp(v))
}

// UpdateVenue replaces the editable fields of a venue the organizer owns.
// An absent layout keeps the stored one; an explicit JSON null clears it.
func (h *OrganizerHandler) UpdateVenue(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	v, err := h.VenueRepo.GetByIDAndOwner(ctx, id, uid)
	if err != nil {
		switch err {
		case repository.ErrVenueNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue failed"})
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		v.Name = name
	}
	if req.Description != "" {
		v.Description = req.Description
	}
	if addr := strings.TrimSpace(req.Address); addr != "" {
		v.Address = addr
	}
	if city := strings.TrimSpace(req.City); city != "" {
		v.City = city
	}
	if req.Capacity > 0 {
		v.Capacity = req.Capacity
	}
	if req.Layout != nil {
		v.Layout = normalizeRawJSON(req.Layout)
	}
	if req.Images != nil {
		v.Images = normalizeRawJSON(req.Images)
	}

	if err := h.VenueRepo.Update(ctx, v); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update venue failed"})
	}
	return c.JSON(http.StatusOK, toVenueResp(v))
}

// DeleteVenue removes a venue the organizer owns. Venues still referenced
// by events cannot be deleted.
func (h *OrganizerHandler) DeleteVenue(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid venue id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.VenueRepo.Delete(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrVenueNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "venue has events"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete venue failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// normalizeRawJSON maps an explicit JSON null to nil so the repository
// writes SQL NULL instead of the literal string "null".
func normalizeRawJSON(raw json.RawMessage) json.RawMessage {
	if strings.TrimSpace(string(raw)) == "null" {
		return nil
	}
	return raw
}
