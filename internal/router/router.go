package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/evreno/event-ticketing/internal/config"
	"github.com/evreno/event-ticketing/internal/handler"
	"github.com/evreno/event-ticketing/internal/middleware"
	"github.com/evreno/event-ticketing/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid token of either
// role.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	// Logout works with just a refresh token in the body, so it does not
	// sit behind the JWT middleware.
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleOrganizer, model.RoleAttendee))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers unauthenticated browse endpoints behind the Redis
// response cache. Only published data is served here.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cache := middleware.NewRedisCache(cacheCfg, rdb)

	e.GET("/v1/events", p.GetPublicEvents, cache)
	e.GET("/v1/events/:id", p.GetPublicEvent, cache)
	e.GET("/v1/venues", p.GetPublicVenues, cache)
}
