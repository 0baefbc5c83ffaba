package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/transport-ticketing/internal/booking"
	"github.com/iliyamo/transport-ticketing/internal/middleware"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
	"github.com/iliyamo/transport-ticketing/internal/sequence"
)

// ReservationHandler serves online bookings and the staff endpoints that
// sell at the counter and move reservations through their lifecycle.
type ReservationHandler struct {
	Store     repository.ReservationRepo
	Writer    *booking.Writer
	Sequencer *sequence.Sequencer
}

// NewReservationHandler returns a ReservationHandler and panics on nil
// dependencies.
func NewReservationHandler(store repository.ReservationRepo, w *booking.Writer, seq *sequence.Sequencer) *ReservationHandler {
	if store == nil || w == nil || seq == nil {
		panic("nil dependency passed to NewReservationHandler")
	}
	return &ReservationHandler{Store: store, Writer: w, Sequencer: seq}
}

// CreateOnline handles POST /v1/reservations.  The reservation is written
// pending for the company and agency operating the trip; channel,
// company_id and agency_id in the body are ignored.  Returns 201, or 409
// with the remaining seats when the trip is full.
func (h *ReservationHandler) CreateOnline(c echo.Context) error {
	var req booking.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Channel = model.ChannelOnline
	req.CompanyID, req.AgencyID = "", ""
	r, err := h.Writer.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// CreateCounter handles POST /v1/counter/reservations for authenticated
// agents.  The sale is booked on the agent's own company and agency taken
// from the token and is paid immediately, so the response carries the
// reference code.
func (h *ReservationHandler) CreateCounter(c echo.Context) error {
	id, ok := middleware.Staff(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req booking.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	req.Channel = model.ChannelCounter
	req.CompanyID, req.AgencyID = id.CompanyID, id.AgencyID
	r, err := h.Writer.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

// GetReservation handles GET /v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	rid, ok := pathID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	r, err := h.Store.GetReservation(c.Request().Context(), rid)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// UpdateStatus handles PATCH /v1/reservations/:id/status with a body of
// {"status": "..."}.  Illegal transitions return 409.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	r, ok := h.staffReservation(c)
	if !ok {
		return nil
	}
	var body struct {
		Status model.ReservationStatus `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	out, err := h.Writer.Promote(c.Request().Context(), r.ID, body.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// AssignCode handles POST /v1/reservations/:id/code.  It assigns the
// reference code of a paid reservation whose automatic assignment failed
// and returns the existing code otherwise.
func (h *ReservationHandler) AssignCode(c echo.Context) error {
	r, ok := h.staffReservation(c)
	if !ok {
		return nil
	}
	if r.Status != model.StatusPaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only paid reservations receive a reference code"})
	}
	code, err := h.Sequencer.Assign(c.Request().Context(), r.ID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation_id": r.ID, "reference_code": code})
}

// staffReservation loads the :id reservation for a staff request.  It
// writes the error response itself and returns false on failure.
func (h *ReservationHandler) staffReservation(c echo.Context) (*model.Reservation, bool) {
	id, ok := middleware.Staff(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		return nil, false
	}
	rid, ok := pathID(c)
	if !ok {
		_ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
		return nil, false
	}
	r, err := h.Store.GetReservation(c.Request().Context(), rid)
	if err != nil {
		_ = writeError(c, err)
		return nil, false
	}
	if !ownsReservation(id, r) {
		// Reservations of other companies are reported as missing.
		_ = writeError(c, repository.ErrNotFound)
		return nil, false
	}
	return r, true
}
