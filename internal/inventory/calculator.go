// Package inventory computes the remaining seats of trip instances from
// the reservations written against them.
package inventory

import (
	"context"
	"fmt"

	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

// Availability is the seat inventory of one trip instance at the time it
// was computed.  Nothing is cached; every call re-reads the reservations.
type Availability struct {
	TripID    string `json:"trip_id"`
	Capacity  int    `json:"capacity"`
	Consumed  int    `json:"consumed"`
	Remaining int    `json:"remaining_seats"`
	// Provisional counts seats of reservations whose payment proof arrived
	// but is not confirmed.  They do not reduce Remaining.
	Provisional int  `json:"provisional"`
	FullyBooked bool `json:"fully_booked"`
}

// Calculator computes Availability.  Only paid reservations consume seats.
type Calculator struct {
	DefaultCapacity int
}

// New returns a Calculator that uses defaultCapacity for instances
// without a positive capacity.
func New(defaultCapacity int) *Calculator {
	return &Calculator{DefaultCapacity: defaultCapacity}
}

// Capacity returns the effective capacity of trip.
func (c *Calculator) Capacity(trip *model.TripInstance) int {
	if trip.Capacity > 0 {
		return trip.Capacity
	}
	return c.DefaultCapacity
}

// Compute derives the availability of trip from every reservation written
// against it.  Reservations of other trips are ignored.
func (c *Calculator) Compute(trip *model.TripInstance, reservations []model.Reservation) Availability {
	a := Availability{TripID: trip.ID, Capacity: c.Capacity(trip)}
	for _, r := range reservations {
		if r.TrajetID != trip.ID {
			continue
		}
		switch r.Status {
		case model.StatusPaid:
			a.Consumed += r.SeatsGo
		case model.StatusProofReceived:
			a.Provisional += r.SeatsGo
		}
	}
	a.Remaining = a.Capacity - a.Consumed
	if a.Remaining <= 0 {
		a.Remaining = 0
		a.FullyBooked = true
	}
	return a
}

// ReservationLister is satisfied by repository.Store and its
// transactional views.
type ReservationLister interface {
	ListReservationsByTrip(ctx context.Context, trajetID string) ([]model.Reservation, error)
}

// ForTrip loads the reservations of trip through l and computes its
// availability.  Inside a transaction that locked trip the result stays
// valid until commit.
func (c *Calculator) ForTrip(ctx context.Context, l ReservationLister, trip *model.TripInstance) (Availability, error) {
	rs, err := l.ListReservationsByTrip(ctx, trip.ID)
	if err != nil {
		return Availability{}, fmt.Errorf("reservations of trip %s: %w", trip.ID, err)
	}
	return c.Compute(trip, rs), nil
}

// TripAvailability pairs a trip instance with its availability.
type TripAvailability struct {
	model.TripInstance
	Availability Availability `json:"availability"`
}

// Finder is the part of repository.Store used by Service.
type Finder interface {
	ReservationLister
	GetTrip(ctx context.Context, id string) (*model.TripInstance, error)
	ListTrips(ctx context.Context, f repository.TripFilter) ([]model.TripInstance, error)
}

// Service answers availability queries against a store.
type Service struct {
	calc  *Calculator
	store Finder
}

// NewService returns a Service reading through store.
func NewService(calc *Calculator, store Finder) *Service {
	return &Service{calc: calc, store: store}
}

// Calculator returns the calculator used by s.
func (s *Service) Calculator() *Calculator { return s.calc }

// Trip returns the availability of one trip instance.
func (s *Service) Trip(ctx context.Context, tripID string) (*TripAvailability, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip %s: %w", tripID, err)
	}
	a, err := s.calc.ForTrip(ctx, s.store, trip)
	if err != nil {
		return nil, err
	}
	return &TripAvailability{TripInstance: *trip, Availability: a}, nil
}

// Search lists the trip instances matching f with their availability.
func (s *Service) Search(ctx context.Context, f repository.TripFilter) ([]TripAvailability, error) {
	trips, err := s.store.ListTrips(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("search trips: %w", err)
	}
	out := make([]TripAvailability, 0, len(trips))
	for i := range trips {
		a, err := s.calc.ForTrip(ctx, s.store, &trips[i])
		if err != nil {
			return nil, err
		}
		out = append(out, TripAvailability{TripInstance: trips[i], Availability: a})
	}
	return out, nil
}
