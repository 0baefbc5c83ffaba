package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/inventory"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

// TripHandler serves the public trip search.  No authentication is
// required.
type TripHandler struct {
	Inventory *inventory.Service
}

// NewTripHandler returns a TripHandler and panics on a nil service.
func NewTripHandler(inv *inventory.Service) *TripHandler {
	if inv == nil {
		panic("nil inventory service passed to NewTripHandler")
	}
	return &TripHandler{Inventory: inv}
}

// SearchTrips handles GET /v1/trips.  departure, arrival and date
// (YYYY-MM-DD) are required; company_id narrows the search to one company.
// Every trip is returned with its remaining seats.
func (h *TripHandler) SearchTrips(c echo.Context) error {
	f := repository.TripFilter{
		Departure: strings.TrimSpace(c.QueryParam("departure")),
		Arrival:   strings.TrimSpace(c.QueryParam("arrival")),
		Date:      strings.TrimSpace(c.QueryParam("date")),
		CompanyID: strings.TrimSpace(c.QueryParam("company_id")),
	}
	if f.Departure == "" || f.Arrival == "" || f.Date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure, arrival and date are required"})
	}
	if _, err := time.Parse(model.DateLayout, f.Date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must be YYYY-MM-DD"})
	}
	items, err := h.Inventory.Search(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": items, "total": len(items)})
}

// GetAvailability handles GET /v1/trips/:id/availability.
func (h *TripHandler) GetAvailability(c echo.Context) error {
	id, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid trip id"})
	}
	ta, err := h.Inventory.Trip(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ta.Availability)
}
