package repository

import (
	"context"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

// TemplateRepo stores weekly trip templates.
type TemplateRepo interface {
	GetTemplate(ctx context.Context, id string) (*model.WeeklyTripTemplate, error)
	CreateTemplate(ctx context.Context, t *model.WeeklyTripTemplate) error
	UpdateTemplate(ctx context.Context, t *model.WeeklyTripTemplate) error
}

// DirectoryRepo resolves companies and agencies.  Their administration
// lives outside this service; only reads are needed here.
type DirectoryRepo interface {
	GetCompany(ctx context.Context, id string) (*model.Company, error)
	GetAgency(ctx context.Context, id string) (*model.Agency, error)
}

// TripFilter selects trip instances by equality on every non-empty field.
type TripFilter struct {
	CompanyID  string
	AgencyID   string
	TemplateID string
	Departure  string
	Arrival    string
	Date       string
}

// TripRepo stores trip instances.
type TripRepo interface {
	GetTrip(ctx context.Context, id string) (*model.TripInstance, error)
	// GetTripForUpdate reads a trip instance and, inside a transaction,
	// locks it until commit.  Bookings on the same instance serialize on
	// this lock.
	GetTripForUpdate(ctx context.Context, id string) (*model.TripInstance, error)
	FindTripByKey(ctx context.Context, key model.TripKey) (*model.TripInstance, error)
	ListTrips(ctx context.Context, f TripFilter) ([]model.TripInstance, error)
	CreateTrip(ctx context.Context, t *model.TripInstance) error
	SyncTrip(ctx context.Context, id string, s model.TripSync) error
}

// ReservationRepo stores reservations.
type ReservationRepo interface {
	GetReservation(ctx context.Context, id string) (*model.Reservation, error)
	FindReservationByRequestID(ctx context.Context, requestID string) (*model.Reservation, error)
	// ListReservationsByTrip returns every reservation of a trip instance
	// regardless of status; callers filter by status themselves.
	ListReservationsByTrip(ctx context.Context, trajetID string) ([]model.Reservation, error)
	CreateReservation(ctx context.Context, r *model.Reservation) error
	UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error
	SetReferenceCode(ctx context.Context, id, code string) error
}

// CounterRepo stores reference code sequence counters.
type CounterRepo interface {
	// GetCounter returns ErrNotFound for a scope that never issued a code.
	GetCounter(ctx context.Context, key model.CounterKey) (*model.SequenceCounter, error)
	PutCounter(ctx context.Context, c *model.SequenceCounter) error
}

// Store is the persistent store.  Outside RunInTx every call is its own
// unit of work and no cross-document consistency is promised.
type Store interface {
	TemplateRepo
	DirectoryRepo
	TripRepo
	ReservationRepo
	CounterRepo

	// RunInTx runs fn against a transactional view of the store.  The
	// writes of fn are applied together when it returns nil and discarded
	// otherwise.  Calling RunInTx on a transactional view joins the
	// existing transaction.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
