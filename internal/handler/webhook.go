package handler

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	stripe "github.com/stripe/stripe-go"
	"github.com/stripe/stripe-go/webhook"

	"github.com/evreno/event-ticketing/internal/config"
	"github.com/evreno/event-ticketing/internal/reservation"
)

// WebhookHandler receives payment gateway events and reconciles them with
// reservations. Stripe retries deliveries, so every path here must be safe
// to replay.
type WebhookHandler struct {
	Cfg      config.Config
	Engine   *reservation.Engine
	Notifier ConfirmedPublisher
}

func NewWebhookHandler(cfg config.Config, eng *reservation.Engine, notifier ConfirmedPublisher) *WebhookHandler {
	if eng == nil || notifier == nil {
		panic("nil dependency passed to NewWebhookHandler")
	}
	return &WebhookHandler{Cfg: cfg, Engine: eng, Notifier: notifier}
}

// StripeWebhook verifies the event signature and dispatches it. A bad
// signature is a 400 so Stripe stops retrying; a processing failure is a
// 500 so it retries later.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	const maxBodyBytes = int64(65536)
	c.Request().Body = http.MaxBytesReader(c.Response().Writer, c.Request().Body, maxBodyBytes)

	payload, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "read body failed"})
	}

	sigHeader := c.Request().Header.Get("Stripe-Signature")
	event, err := webhook.ConstructEvent(payload, sigHeader, h.Cfg.StripeWebhookSecret)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid signature"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.dispatch(ctx, event); err != nil {
		log.Printf("webhook: handling %s failed: %v", event.Type, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "event handling failed"})
	}
	return c.NoContent(http.StatusOK)
}

// dispatch routes a verified event to the reservation engine. Event types
// we do not subscribe to are acknowledged and dropped.
func (h *WebhookHandler) dispatch(ctx context.Context, event stripe.Event) error {
	switch event.Type {
	case "checkout.session.completed":
		return h.handleCompleted(ctx, event)
	case "checkout.session.expired":
		return h.handleExpired(ctx, event)
	}
	return nil
}

func (h *WebhookHandler) handleCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}
	resID, ok := reservationIDFrom(&sess)
	if !ok {
		// Not a session we created; acknowledge and drop.
		log.Printf("webhook: completed session %s without reservation_id metadata", sess.ID)
		return nil
	}

	ref := sess.ID
	if sess.PaymentIntent != nil && sess.PaymentIntent.ID != "" {
		ref = sess.PaymentIntent.ID
	}

	res, err := h.Engine.Transition(ctx, resID, reservation.OutcomeConfirm, ref)
	if err != nil {
		if err == reservation.ErrAlreadyTerminal {
			// Paid after cancellation: the money moved but the tickets are
			// gone. Surfaced loudly for manual reconciliation (refund).
			log.Printf("webhook: payment %s arrived for cancelled reservation %d; refund required", ref, resID)
			return nil
		}
		return err
	}

	if err := h.Notifier.PublishConfirmed(ctx, res); err != nil {
		log.Printf("webhook: publish confirmation for reservation %d failed: %v", res.ID, err)
	}
	return nil
}

func (h *WebhookHandler) handleExpired(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return err
	}
	resID, ok := reservationIDFrom(&sess)
	if !ok {
		return nil
	}

	// A session that expired after the reservation was paid (or swept) must
	// not cancel anything; CancelIfPending skips terminal reservations.
	applied, err := h.Engine.CancelIfPending(ctx, resID)
	if err != nil {
		if err == reservation.ErrReservationNotFound {
			return nil
		}
		return err
	}
	if applied {
		log.Printf("webhook: reservation %d cancelled after checkout session expired", resID)
	}
	return nil
}

func reservationIDFrom(sess *stripe.CheckoutSession) (uint64, bool) {
	raw, ok := sess.Metadata["reservation_id"]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
