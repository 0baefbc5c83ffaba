package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/handler"
	"github.com/iliyamo/transport-ticketing/internal/middleware"
)

// RegisterStaff registers the endpoints used by agents at the station
// counter.  All routes require a valid JWT with the AGENT or ADMIN role.
func RegisterStaff(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAgent, middleware.RoleAdmin),
	)
	g.POST("/counter/reservations", r.CreateCounter, limit)
	g.PATCH("/reservations/:id/status", r.UpdateStatus)
	g.POST("/reservations/:id/code", r.AssignCode)
}
