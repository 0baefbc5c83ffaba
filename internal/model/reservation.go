package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	StatusPending           ReservationStatus = "pending"
	StatusPaymentInProgress ReservationStatus = "payment_in_progress"
	StatusProofReceived     ReservationStatus = "proof_received"
	StatusPaid              ReservationStatus = "paid"
	StatusCancelled         ReservationStatus = "cancelled"
	StatusRefused           ReservationStatus = "refused"
)

// progression is the forward order of the payment flow.
var progression = map[ReservationStatus]int{
	StatusPending:           0,
	StatusPaymentInProgress: 1,
	StatusProofReceived:     2,
	StatusPaid:              3,
}

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusPaymentInProgress, StatusProofReceived, StatusPaid, StatusCancelled, StatusRefused:
		return true
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusRefused
}

// CanTransition reports whether a reservation in status s may move to
// next.  The payment flow only moves forward; cancellation is possible
// from any live state, refusal only before payment.
func (s ReservationStatus) CanTransition(next ReservationStatus) bool {
	if s.Terminal() || !next.Valid() || s == next {
		return false
	}
	switch next {
	case StatusCancelled:
		return true
	case StatusRefused:
		return s != StatusPaid
	}
	from, ok := progression[s]
	if !ok {
		return false
	}
	return progression[next] > from
}

// Channel is the sales path a reservation originated from.
type Channel string

const (
	ChannelCounter Channel = "counter"
	ChannelOnline  Channel = "online"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelCounter || c == ChannelOnline
}

// Reservation is a booking of seats on a TripInstance.  AgencyName,
// AgencyPhone and CompanyName are copied at creation time so listings do
// not need to resolve them again.
//
// Fields:
//  TrajetID      – the TripInstance booked (non-owning reference).
//  SeatsGo       – seats on the outbound trip.
//  SeatsReturn   – seats for the return leg of a round trip.
//  Amount        – total price charged.
//  RequestID     – optional client key making creation retry-safe.
//  ReferenceCode – ticket code, assigned once when the reservation is paid.
type Reservation struct {
	ID            string            `db:"id" json:"id"`
	TrajetID      string            `db:"trajet_id" json:"trajet_id"`
	SeatsGo       int               `db:"seats_go" json:"seats_go"`
	SeatsReturn   int               `db:"seats_return" json:"seats_return"`
	Status        ReservationStatus `db:"status" json:"status"`
	Channel       Channel           `db:"channel" json:"channel"`
	Amount        int64             `db:"amount" json:"amount"`
	CompanyID     string            `db:"company_id" json:"company_id"`
	CompanyName   string            `db:"company_name" json:"company_name"`
	AgencyID      string            `db:"agency_id" json:"agency_id"`
	AgencyName    string            `db:"agency_name" json:"agency_name"`
	AgencyPhone   string            `db:"agency_phone" json:"agency_phone"`
	CustomerName  string            `db:"customer_name" json:"customer_name,omitempty"`
	CustomerPhone string            `db:"customer_phone" json:"customer_phone,omitempty"`
	RequestID     string            `db:"request_id" json:"request_id,omitempty"`
	ReferenceCode string            `db:"reference_code" json:"reference_code,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

// SeatsRequested is the number of seats the reservation must fit into the
// remaining inventory of its trip.
func (r *Reservation) SeatsRequested() int { return r.SeatsGo + r.SeatsReturn }
