package router

import (
	"github.com/labstack/echo/v4"

	"github.com/evreno/event-ticketing/internal/handler"
	"github.com/evreno/event-ticketing/internal/middleware"
	"github.com/evreno/event-ticketing/internal/model"
)

// RegisterAttendee registers attendee-scoped reservation and payment
// endpoints under /v1. All routes require a valid JWT and the ATTENDEE
// role. Reservation creation sits behind the rate limiter: it is the one
// endpoint that can burn inventory. The simulated settle endpoint replaces
// the payment gateway when no Stripe key is configured and is only mounted
// in that mode.
func RegisterAttendee(e *echo.Echo, a *handler.AttendeeHandler, jwtSecret string, limiter echo.MiddlewareFunc, testMode bool) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAttendee),
	)

	g.POST("/reservations", a.CreateReservation, limiter)
	g.GET("/reservations", a.ListMyReservations)
	g.GET("/reservations/:id", a.GetMyReservation)
	g.DELETE("/reservations/:id", a.CancelMyReservation, limiter)
	g.POST("/payments/checkout", a.Checkout, limiter)
	if testMode {
		g.POST("/payments/confirm", a.ConfirmTest, limiter)
	}
}

// RegisterPayments registers the payment gateway webhook. Stripe calls it
// directly and authenticates with its signature, so no JWT applies.
func RegisterPayments(e *echo.Echo, w *handler.WebhookHandler) {
	e.POST("/v1/payments/webhook", w.StripeWebhook)
}
