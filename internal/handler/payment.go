package handler

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/checkout/session"

	"github.com/evreno/event-ticketing/internal/model"
	"github.com/evreno/event-ticketing/internal/reservation"
)

type checkoutReq struct {
	ReservationID uint64 `json:"reservation_id"`
}

// Checkout starts the payment flow for a pending reservation the attendee
// owns. With a Stripe key configured it creates a Checkout Session carrying
// the reservation ID in metadata; confirmation then arrives through the
// webhook. Without a key the handler returns a link to the simulated
// payment endpoint instead, which the test suite and local development use.
func (h *AttendeeHandler) Checkout(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req checkoutReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id required"})
	}
	id := req.ReservationID

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	detail, err := h.Reservations.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}
	if detail.Status != model.ReservationPending {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation is not pending"})
	}
	if detail.Payment.Status == model.PaymentCompleted {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation already paid"})
	}

	if h.Cfg.StripeSecret == "" {
		// Simulated flow: the client "pays" by calling the confirm endpoint.
		return c.JSON(http.StatusOK, echo.Map{
			"mode":         "test",
			"checkout_url": fmt.Sprintf("%s/v1/payments/confirm?reservation_id=%d", h.Cfg.BaseURL, id),
		})
	}

	resID := strconv.FormatUint(id, 10)
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Name:     stripe.String(fmt.Sprintf("%s - %s x%d", detail.EventTitle, detail.TierName, detail.Quantity)),
			Amount:   stripe.Int64(detail.TotalCents),
			Currency: stripe.String(strings.ToLower(detail.Payment.Currency)),
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(h.Cfg.BaseURL + "/payments/success?reservation_id=" + resID),
		CancelURL:  stripe.String(h.Cfg.BaseURL + "/payments/cancelled?reservation_id=" + resID),
	}
	params.AddMetadata("reservation_id", resID)
	// One key per reservation: retrying checkout for the same reservation
	// must not open a second session.
	params.SetIdempotencyKey("checkout-" + resID)

	s, err := session.New(params)
	if err != nil {
		log.Printf("stripe: create checkout session for reservation %d failed: %v", id, err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"mode":                "stripe",
		"checkout_session_id": s.ID,
	})
}

type confirmTestReq struct {
	ReservationID uint64 `json:"reservation_id"`
	Action        string `json:"action"` // confirm | cancel
}

// ConfirmTest settles a reservation through the simulated payment flow. It
// mirrors what the webhook does for real payments: confirm stamps a
// synthetic payment reference, cancel restocks the tickets. Replaying the
// same action is a no-op; the opposite action on a settled reservation is a
// conflict. Unlike the webhook, the caller is an attendee, so ownership is
// enforced.
func (h *AttendeeHandler) ConfirmTest(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req confirmTestReq
	if err := c.Bind(&req); err != nil || req.ReservationID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reservation_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.Reservations.GetByIDForUser(ctx, req.ReservationID, uid); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reservation failed"})
	}

	switch strings.ToLower(strings.TrimSpace(req.Action)) {
	case "confirm", "":
		res, err := h.Engine.Transition(ctx, req.ReservationID, reservation.OutcomeConfirm, "test_"+uuid.New().String())
		if err != nil {
			return transitionError(c, err)
		}
		if err := h.Notifier.PublishConfirmed(ctx, res); err != nil {
			log.Printf("payments: publish confirmation for reservation %d failed: %v", res.ID, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": res.Status})
	case "cancel":
		res, err := h.Engine.Transition(ctx, req.ReservationID, reservation.OutcomeCancel, "")
		if err != nil {
			return transitionError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"status": res.Status})
	}
	return c.JSON(http.StatusBadRequest, echo.Map{"error": "action must be confirm or cancel"})
}

func transitionError(c echo.Context, err error) error {
	switch err {
	case reservation.ErrReservationNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
	case reservation.ErrAlreadyTerminal:
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already settled"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transition failed"})
}
