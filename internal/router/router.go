// Package router registers the HTTP routes of the service.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/handler"
)

// RegisterRoutes registers the unauthenticated health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the trip search and online booking endpoints.
// No JWT is required.  limit guards the booking endpoint.
func RegisterPublic(e *echo.Echo, t *handler.TripHandler, r *handler.ReservationHandler, limit echo.MiddlewareFunc) {
	e.GET("/v1/trips", t.SearchTrips)
	e.GET("/v1/trips/:id/availability", t.GetAvailability)

	e.POST("/v1/reservations", r.CreateOnline, limit)
	e.GET("/v1/reservations/:id", r.GetReservation)
}
