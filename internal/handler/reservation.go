package handler

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/evreno/event-ticketing/internal/config"
	"github.com/evreno/event-ticketing/internal/model"
	"github.com/evreno/event-ticketing/internal/repository"
	"github.com/evreno/event-ticketing/internal/reservation"
)

// AttendeeHandler serves reservation and payment endpoints for attendees.
// All inventory mutations go through the reservation engine; the handler
// only validates input, enforces ownership and shapes responses.
type AttendeeHandler struct {
	Cfg          config.Config
	Engine       *reservation.Engine
	Reservations *repository.ReservationRepo
	Tiers        *repository.TierRepo
	Events       *repository.EventRepo
	Notifier     ConfirmedPublisher
}

func NewAttendeeHandler(cfg config.Config, eng *reservation.Engine, resRepo *repository.ReservationRepo, tierRepo *repository.TierRepo, eventRepo *repository.EventRepo, notifier ConfirmedPublisher) *AttendeeHandler {
	if eng == nil || resRepo == nil || tierRepo == nil || eventRepo == nil || notifier == nil {
		panic("nil dependency passed to NewAttendeeHandler")
	}
	return &AttendeeHandler{Cfg: cfg, Engine: eng, Reservations: resRepo, Tiers: tierRepo, Events: eventRepo, Notifier: notifier}
}

type createReservationReq struct {
	TierID   uint64 `json:"tier_id"`
	Quantity uint32 `json:"quantity"`
}

type reservationResp struct {
	ID         uint64    `json:"id"`
	TierID     uint64    `json:"tier_id"`
	EventID    uint64    `json:"event_id"`
	Quantity   uint32    `json:"quantity"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// CreateReservation atomically reserves tickets in a tier for the current
// user. The reservation starts PENDING and must be paid (or it expires and
// the tickets return to inventory). Only published events are bookable.
func (h *AttendeeHandler) CreateReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TierID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tier_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tier, err := h.Tiers.GetByID(ctx, req.TierID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket tier not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tier failed"})
	}
	ev, err := h.Events.GetByID(ctx, tier.EventID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load event failed"})
	}
	if ev.Status != model.EventPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	res, err := h.Engine.Reserve(ctx, uid, req.TierID, req.Quantity)
	if err != nil {
		switch err {
		case reservation.ErrInvalidQuantity:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity must be between 1 and 10"})
		case reservation.ErrTierNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket tier not found"})
		case reservation.ErrInsufficientInventory:
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "not enough tickets available"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reservation failed"})
	}

	return c.JSON(http.StatusCreated, reservationResp{
		ID:         res.ID,
		TierID:     res.TierID,
		EventID:    res.EventID,
		Quantity:   res.Quantity,
		TotalCents: res.TotalCents,
		Status:     res.Status,
		CreatedAt:  res.CreatedAt,
	})
}

// ListMyReservations returns the current user's reservations with payment
// and event context, newest first.
func (h *AttendeeHandler) ListMyReservations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	list, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reservations failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": list})
}

// GetMyReservation returns one reservation with full payment detail. A
// reservation belonging to another user is indistinguishable from a missing
// one.
func (h *AttendeeHandler) GetMyReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Reservations.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	return c.JSON(http.StatusOK, detail)
}

// CancelMyReservation lets an attendee abandon a pending reservation before
// paying, returning the tickets to inventory immediately instead of waiting
// for the expiry sweep.
func (h *AttendeeHandler) CancelMyReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// Ownership first; the engine has no notion of users beyond the row.
	if _, err := h.Reservations.GetByIDForUser(ctx, id, uid); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}

	if _, err := h.Engine.Transition(ctx, id, reservation.OutcomeCancel, ""); err != nil {
		if err == reservation.ErrAlreadyTerminal {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already confirmed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
