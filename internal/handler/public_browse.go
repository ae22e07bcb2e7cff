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

// PublicHandler serves unauthenticated browse endpoints. Responses here sit
// behind the Redis response cache, so only published data may ever appear.
type PublicHandler struct {
	EventRepo *repository.EventRepo
	TierRepo  *repository.TierRepo
	VenueRepo *repository.VenueRepo
}

func NewPublicHandler(eventRepo *repository.EventRepo, tierRepo *repository.TierRepo, venueRepo *repository.VenueRepo) *PublicHandler {
	if eventRepo == nil || tierRepo == nil || venueRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{EventRepo: eventRepo, TierRepo: tierRepo, VenueRepo: venueRepo}
}

// GetPublicEvents lists published events, optionally filtered by city
// (?city=) with a case-insensitive substring match.
func (h *PublicHandler) GetPublicEvents(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	events, err := h.EventRepo.List(ctx, model.EventPublished, city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list events failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"events": events})
}

// GetPublicEvent returns a published event with its venue and ticket tiers
// (cheapest first). Drafts are invisible, even by direct ID.
func (h *PublicHandler) GetPublicEvent(c echo.Context) error {
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
	if ev.Status != model.EventPublished {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
	}

	venue, err := h.VenueRepo.GetByID(ctx, ev.VenueID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load venue failed"})
	}
	tiers, err := h.TierRepo.ListByEvent(ctx, ev.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load tiers failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"event": toEventResp(ev, tiers),
		"venue": toVenueResp(venue),
	})
}

// GetPublicVenues lists venues, optionally filtered by city (?city=).
func (h *PublicHandler) GetPublicVenues(c echo.Context) error {
	city := strings.TrimSpace(c.QueryParam("city"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	venues, err := h.VenueRepo.List(ctx, city)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list venues failed"})
	}
	out := make([]venueResp, 0, len(venues))
	for i := range venues {
		out = append(out, toVenueResp(&venues[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"venues": out})
}
