// Package queue defines the messages exchanged over the broker and the
// audit consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

// ReservationPaidQueue is the durable queue carrying ReservationPaidEvent.
const ReservationPaidQueue = "reservation.paid"

// ReservationPaidEvent is published once a reservation reaches the paid
// status.  It carries enough for consumers to log or notify without
// reading the store.
type ReservationPaidEvent struct {
	ReservationID string `json:"reservation_id"`
	ReferenceCode string `json:"reference_code,omitempty"`
	TripID        string `json:"trip_id"`
	CompanyID     string `json:"company_id"`
	CompanyName   string `json:"company_name"`
	AgencyID      string `json:"agency_id"`
	AgencyName    string `json:"agency_name"`
	Channel       string `json:"channel"`
	SeatsGo       int    `json:"seats_go"`
	SeatsReturn   int    `json:"seats_return"`
	Amount        int64  `json:"amount"`
	PaidAt        string `json:"paid_at"`
}

// NewReservationPaidEvent builds the event for r, paid at the given time.
func NewReservationPaidEvent(r *model.Reservation, at time.Time) ReservationPaidEvent {
	return ReservationPaidEvent{
		ReservationID: r.ID,
		ReferenceCode: r.ReferenceCode,
		TripID:        r.TrajetID,
		CompanyID:     r.CompanyID,
		CompanyName:   r.CompanyName,
		AgencyID:      r.AgencyID,
		AgencyName:    r.AgencyName,
		Channel:       string(r.Channel),
		SeatsGo:       r.SeatsGo,
		SeatsReturn:   r.SeatsReturn,
		Amount:        r.Amount,
		PaidAt:        at.UTC().Format(time.RFC3339),
	}
}
