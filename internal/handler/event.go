package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evreno/event-ticketing/internal/model"
	"github.com/evreno/event-ticketing/internal/repository"
)

// tierReq describes one ticket tier supplied when creating an event. The
// optional position fields tie the tier to a region of the venue layout.
type tierReq struct {
	Name       string   `json:"name"`
	PriceCents int64    `json:"price_cents"`
	Quantity   uint32   `json:"quantity"`
	Color      string   `json:"color"`
	PosX       *float64 `json:"pos_x,omitempty"`
	PosY       *float64 `json:"pos_y,omitempty"`
}

type eventReq struct {
	VenueID     uint64    `json:"venue_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	CoverImage  string    `json:"cover_image"`
	Status      string    `json:"status"`
	Tiers       []tierReq `json:"tiers"`
}

type tierResp struct {
	ID         uint64   `json:"id"`
	Name       string   `json:"name"`
	PriceCents int64    `json:"price_cents"`
	Quantity   uint32   `json:"quantity"`
	Available  uint32   `json:"available"`
	Color      string   `json:"color,omitempty"`
	PosX       *float64 `json:"pos_x,omitempty"`
	PosY       *float64 `json:"pos_y,omitempty"`
}

type eventResp struct {
	ID          uint64     `json:"id"`
	VenueID     uint64     `json:"venue_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	CoverImage  string     `json:"cover_image,omitempty"`
	Status      string     `json:"status"`
	Tiers       []tierResp `json:"tiers,omitempty"`
}

func toTierResp(t *model.TicketTier) tierResp {
	return tierResp{
		ID:         t.ID,
		Name:       t.Name,
		PriceCents: t.PriceCents,
		Quantity:   t.Quantity,
		Available:  t.Available,
		Color:      t.Color,
		PosX:       t.PosX,
		PosY:       t.PosY,
	}
}

func toEventResp(ev *model.Event, tiers []model.TicketTier) eventResp {
	out := eventResp{
		ID:          ev.ID,
		VenueID:     ev.VenueID,
		Title:       ev.Title,
		Description: ev.Description,
		StartDate:   ev.StartDate,
		EndDate:     ev.EndDate,
		CoverImage:  ev.CoverImage,
		Status:      ev.Status,
	}
	for i := range tiers {
		out.Tiers = append(out.Tiers, toTierResp(&tiers[i]))
	}
	return out
}

// CreateEvent creates an event together with its ticket tiers in a single
// transaction, so a half-created event never becomes bookable. The venue
// must belong to the organizer.
func (h *OrganizerHandler) CreateEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" || req.VenueID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/venue_id required"})
	}
	if len(req.Tiers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "at least one ticket tier required"})
	}
	if !req.EndDate.After(req.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
	}
	for _, t := range req.Tiers {
		if strings.TrimSpace(t.Name) == "" || t.PriceCents < 0 || t.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid ticket tier"})
		}
	}
	status := strings.ToUpper(strings.TrimSpace(req.Status))
	if status != model.EventPublished {
		status = model.EventDraft
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if _, err := h.VenueRepo.GetByIDAndOwner(ctx, req.VenueID, uid); err != nil {
		switch err {
		case repository.ErrVenueNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "venue not found"})
		case repository.ErrForbidden:
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue failed"})
	}

	tx, err := h.EventRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	ev := &model.Event{
		OrganizerID: uid,
		VenueID:     req.VenueID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CoverImage:  strings.TrimSpace(req.CoverImage),
		Status:      status,
	}
	if err := h.EventRepo.CreateTx(ctx, tx, ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create event failed"})
	}

	tiers := make([]model.TicketTier, 0, len(req.Tiers))
	for _, t := range req.Tiers {
		tiers = append(tiers, model.TicketTier{
			EventID:    ev.ID,
			Name:       strings.TrimSpace(t.Name),
			PriceCents: t.PriceCents,
			Quantity:   t.Quantity,
			Color:      t.Color,
			PosX:       t.PosX,
			PosY:       t.PosY,
		})
	}
	if err := h.TierRepo.CreateBulkTx(ctx, tx, tiers); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tiers failed"})
	}

	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, toEventResp(ev, tiers))
}

// ListMyEvents returns all events created by the organizer, drafts included.
func (h *OrganizerHandler) ListMyEvents(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.EventRepo.ListByOrganizer(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	out := make([]eventResp, 0, len(events))
	for i := range events {
		out = append(out, toEventResp(&events[i], nil))
	}
	return c.JSON(http.StatusOK, echo.Map{"events": out})
}

// GetMyEvent returns one of the organizer's events with its ticket tiers.
func (h *OrganizerHandler) GetMyEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.EventRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if ev.OrganizerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	tiers, err := h.TierRepo.ListByEvent(ctx, ev.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tiers failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(ev, tiers))
}

// UpdateEvent edits the event's descriptive fields and status. Ticket tier
// capacities are intentionally immutable here: changing them underneath
// live reservations would break the inventory invariant.
func (h *OrganizerHandler) UpdateEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var req eventReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	ev, err := h.EventRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrEventNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if ev.OrganizerID != uid {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	if title := strings.TrimSpace(req.Title); title != "" {
		ev.Title = title
	}
	if req.Description != "" {
		ev.Description = req.Description
	}
	if !req.StartDate.IsZero() {
		ev.StartDate = req.StartDate
	}
	if !req.EndDate.IsZero() {
		ev.EndDate = req.EndDate
	}
	if !ev.EndDate.After(ev.StartDate) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
	}
	if cover := strings.TrimSpace(req.CoverImage); cover != "" {
		ev.CoverImage = cover
	}
	if status := strings.ToUpper(strings.TrimSpace(req.Status)); status == model.EventDraft || status == model.EventPublished {
		ev.Status = status
	}

	if err := h.EventRepo.Update(ctx, ev); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update event failed"})
	}
	return c.JSON(http.StatusOK, toEventResp(ev, nil))
}

// DeleteEvent removes an event the organizer owns. Events with
// reservations cannot be deleted.
func (h *OrganizerHandler) DeleteEvent(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.EventRepo.Delete(ctx, id, uid); err != nil {
		switch err {
		case repository.ErrEventNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case repository.ErrConflict:
			return c.JSON(http.StatusConflict, echo.Map{"error": "event has reservations"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete event failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
