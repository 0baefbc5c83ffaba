// Package handler exposes scheduling, availability and booking over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/apperr"
	"github.com/iliyamo/transport-ticketing/internal/middleware"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

// writeError translates an error from the service packages into a JSON
// response with the matching status code.  Unexpected errors are logged
// and reported as 500 without detail.
func writeError(c echo.Context, err error) error {
	var (
		verr *apperr.ValidationError
		cerr *apperr.CapacityExceededError
	)
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &cerr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "not enough seats left",
			"requested": cerr.Requested,
			"remaining": cerr.Remaining,
		})
	case errors.Is(err, apperr.ErrMissingContext):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, apperr.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting write"})
	case errors.Is(err, apperr.ErrTransient), errors.Is(err, context.DeadlineExceeded):
		c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Path(), err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, please retry"})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// pathID reads a non-empty :id path parameter.
func pathID(c echo.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	return id, id != ""
}

// ownsReservation reports whether the staff member may act on r.  Agents
// are limited to their company; admins without a company claim see all.
func ownsReservation(id middleware.Identity, r *model.Reservation) bool {
	return (id.CompanyID == "" && id.Role == middleware.RoleAdmin) || id.CompanyID == r.CompanyID
}
