package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/handler"
	"github.com/iliyamo/transport-ticketing/internal/middleware"
)

// RegisterAdmin registers template management.  All routes require the
// ADMIN role.  cache sits behind authentication so cached template reads
// are only served to administrators.
func RegisterAdmin(e *echo.Echo, t *handler.TemplateHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/templates",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	g.POST("", t.CreateTemplate)
	g.GET("/:id", t.GetTemplate, cache)
	g.PUT("/:id", t.UpdateTemplate, cache)
	g.POST("/:id/expand", t.ExpandTemplate)
}
