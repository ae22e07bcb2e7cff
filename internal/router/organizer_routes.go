package router

import (
	"github.com/labstack/echo/v4"

	"github.com/evreno/event-ticketing/internal/handler"
	"github.com/evreno/event-ticketing/internal/middleware"
	"github.com/evreno/event-ticketing/internal/model"
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under /v1. All
// routes require a valid JWT and the ORGANIZER role; the optional rate
// limiter middleware guards the mutating routes.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer),
	)

	// ---- Venues ----
	g.POST("/venues", o.CreateVenue, limiter)
	g.GET("/my/venues", o.ListMyVenues)
	g.GET("/my/venues/:id", o.GetMyVenue)
	g.PUT("/venues/:id", o.UpdateVenue, limiter)
	g.PATCH("/venues/:id", o.UpdateVenue, limiter)
	g.DELETE("/venues/:id", o.DeleteVenue, limiter)

	// ---- Events ----
	g.POST("/events", o.CreateEvent, limiter)
	g.GET("/my/events", o.ListMyEvents)
	g.GET("/my/events/:id", o.GetMyEvent)
	g.PUT("/events/:id", o.UpdateEvent, limiter)
	g.PATCH("/events/:id", o.UpdateEvent, limiter)
	g.DELETE("/events/:id", o.DeleteEvent, limiter)
}
