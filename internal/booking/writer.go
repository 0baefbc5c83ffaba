// Package booking writes reservations against the seat inventory of trip
// instances and moves them through their status lifecycle.
package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/transport-ticketing/internal/apperr"
	"github.com/iliyamo/transport-ticketing/internal/inventory"
	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/queue"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

// CodeAssigner assigns reference codes to paid reservations.
type CodeAssigner interface {
	Assign(ctx context.Context, reservationID string) (string, error)
}

// EventPublisher announces paid reservations.
type EventPublisher interface {
	PublishReservationPaid(ctx context.Context, event queue.ReservationPaidEvent) error
}

// CreateRequest describes a reservation to write.  For counter sales
// CompanyID and AgencyID come from the selling agent; online sales take
// them from the trip instance.
type CreateRequest struct {
	TrajetID      string        `json:"trajet_id"`
	SeatsGo       int           `json:"seats_go" validate:"gte=1"`
	SeatsReturn   int           `json:"seats_return" validate:"gte=0"`
	Channel       model.Channel `json:"channel" validate:"oneof=counter online"`
	CompanyID     string        `json:"company_id"`
	AgencyID      string        `json:"agency_id"`
	CustomerName  string        `json:"customer_name" validate:"max=120"`
	CustomerPhone string        `json:"customer_phone" validate:"max=32"`
	RequestID     string        `json:"request_id" validate:"max=64"`
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}()

var reasons = map[string]string{
	"gte":   "is too small",
	"oneof": "must be counter or online",
	"max":   "is too long",
}

func (req *CreateRequest) check() error {
	req.TrajetID = strings.TrimSpace(req.TrajetID)
	req.RequestID = strings.TrimSpace(req.RequestID)
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		out := &apperr.ValidationError{Fields: map[string]string{}}
		for _, fe := range verrs {
			out.Fields[fe.Field()] = reasons[fe.Tag()]
		}
		return out
	}
	if req.TrajetID == "" {
		return fmt.Errorf("%w: trajet_id", apperr.ErrMissingContext)
	}
	if req.Channel == model.ChannelCounter && (req.CompanyID == "" || req.AgencyID == "") {
		return fmt.Errorf("%w: counter sales need the agent's company and agency", apperr.ErrMissingContext)
	}
	return nil
}

// Config configures a Writer.
type Config struct {
	Calculator *inventory.Calculator
	Codes      CodeAssigner
	Events     EventPublisher // optional
	Logger     *log.Logger
	Now        func() time.Time
}

// Writer creates and promotes reservations.  The capacity check and the
// write it guards run in one store transaction that locks the trip
// instance first, so concurrent bookings of one instance never oversell.
type Writer struct {
	store  repository.Store
	calc   *inventory.Calculator
	codes  CodeAssigner
	events EventPublisher
	log    *log.Logger
	now    func() time.Time
}

// NewWriter returns a Writer on store.
func NewWriter(store repository.Store, cfg Config) *Writer {
	w := &Writer{store: store, calc: cfg.Calculator, codes: cfg.Codes, events: cfg.Events, log: cfg.Logger, now: cfg.Now}
	if w.calc == nil {
		w.calc = inventory.New(70)
	}
	if w.log == nil {
		w.log = log.New("booking")
	}
	if w.now == nil {
		w.now = time.Now
	}
	return w
}

// Create writes a new reservation.  Counter sales are written paid and
// receive their reference code immediately; online sales start pending.
// When req.RequestID matches an existing reservation that reservation is
// returned and nothing is written.
func (w *Writer) Create(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	if err := req.check(); err != nil {
		return nil, err
	}
	if req.RequestID != "" {
		if r, err := w.store.FindReservationByRequestID(ctx, req.RequestID); err == nil {
			return r, nil
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	var created *model.Reservation
	err := w.store.RunInTx(ctx, func(ctx context.Context, tx repository.Store) error {
		trip, err := tx.GetTripForUpdate(ctx, req.TrajetID)
		if err != nil {
			return fmt.Errorf("trip %s: %w", req.TrajetID, err)
		}
		r, err := w.draft(ctx, tx, trip, req)
		if err != nil {
			return err
		}
		if err := w.fits(ctx, tx, trip, r.SeatsRequested()); err != nil {
			return err
		}
		if err := tx.CreateReservation(ctx, r); err != nil {
			return fmt.Errorf("create reservation: %w", err)
		}
		created = r
		return nil
	})
	if errors.Is(err, repository.ErrConflict) && req.RequestID != "" {
		// Lost a race with a retry of the same request.
		if r, ferr := w.store.FindReservationByRequestID(ctx, req.RequestID); ferr == nil {
			return r, nil
		}
	}
	if err != nil {
		return nil, err
	}
	w.log.Infof("reservation %s created on trip %s: channel=%s seats=%d status=%s",
		created.ID, created.TrajetID, created.Channel, created.SeatsRequested(), created.Status)
	if created.Status == model.StatusPaid {
		w.paid(ctx, created)
	}
	return created, nil
}

// draft builds the reservation for req on trip, resolving the denormalized
// company and agency fields.
func (w *Writer) draft(ctx context.Context, tx repository.Store, trip *model.TripInstance, req CreateRequest) (*model.Reservation, error) {
	companyID, agencyID := req.CompanyID, req.AgencyID
	status := model.StatusPaid
	if req.Channel == model.ChannelOnline {
		companyID, agencyID = trip.CompanyID, trip.AgencyID
		status = model.StatusPending
	}
	if companyID == "" || agencyID == "" {
		return nil, fmt.Errorf("%w: trip %s has no company or agency", apperr.ErrMissingContext, trip.ID)
	}
	if companyID != trip.CompanyID {
		return nil, apperr.Invalid("trajet_id", "trip belongs to another company")
	}
	agency, err := tx.GetAgency(ctx, agencyID)
	if err != nil {
		return nil, fmt.Errorf("agency %s: %w", agencyID, err)
	}
	companyName := trip.CompanyName
	if companyName == "" {
		c, err := tx.GetCompany(ctx, companyID)
		if err != nil {
			return nil, fmt.Errorf("company %s: %w", companyID, err)
		}
		companyName = c.Name
	}
	now := w.now().UTC()
	return &model.Reservation{
		ID:            uuid.NewString(),
		TrajetID:      trip.ID,
		SeatsGo:       req.SeatsGo,
		SeatsReturn:   req.SeatsReturn,
		Status:        status,
		Channel:       req.Channel,
		Amount:        trip.UnitPrice * int64(req.SeatsGo+req.SeatsReturn),
		CompanyID:     companyID,
		CompanyName:   companyName,
		AgencyID:      agencyID,
		AgencyName:    agency.Name,
		AgencyPhone:   agency.Phone,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		RequestID:     req.RequestID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// fits reports a CapacityExceededError when seats do not fit into the
// remaining inventory of trip.  trip must be locked by tx.
func (w *Writer) fits(ctx context.Context, tx repository.Store, trip *model.TripInstance, seats int) error {
	a, err := w.calc.ForTrip(ctx, tx, trip)
	if err != nil {
		return err
	}
	if seats > a.Remaining {
		return &apperr.CapacityExceededError{TripID: trip.ID, Requested: seats, Remaining: a.Remaining}
	}
	return nil
}

// Promote moves a reservation to status next.  Moving to the current
// status is a no-op.  Promotion to paid re-checks the remaining inventory
// of the trip; cancelling a paid reservation releases its seats.
func (w *Writer) Promote(ctx context.Context, id string, next model.ReservationStatus) (*model.Reservation, error) {
	if !next.Valid() {
		return nil, apperr.Invalid("status", "unknown reservation status")
	}
	var (
		out     *model.Reservation
		changed bool
	)
	err := w.store.RunInTx(ctx, func(ctx context.Context, tx repository.Store) error {
		r, err := tx.GetReservation(ctx, id)
		if err != nil {
			return fmt.Errorf("reservation %s: %w", id, err)
		}
		out = r
		if r.Status == next {
			return nil
		}
		if !r.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, r.Status, next)
		}
		if next == model.StatusPaid {
			trip, err := tx.GetTripForUpdate(ctx, r.TrajetID)
			if err != nil {
				return fmt.Errorf("trip %s: %w", r.TrajetID, err)
			}
			if err := w.fits(ctx, tx, trip, r.SeatsRequested()); err != nil {
				return err
			}
		}
		if err := tx.UpdateReservationStatus(ctx, id, next); err != nil {
			return fmt.Errorf("update reservation %s: %w", id, err)
		}
		r.Status = next
		r.UpdatedAt = w.now().UTC()
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		w.log.Infof("reservation %s moved to %s", id, next)
		if next == model.StatusPaid {
			w.paid(ctx, out)
		}
	}
	return out, nil
}

// paid assigns the reference code of a reservation that just became paid
// and announces it.  Failures are logged; the reservation stays paid.
func (w *Writer) paid(ctx context.Context, r *model.Reservation) {
	if w.codes != nil {
		code, err := w.codes.Assign(ctx, r.ID)
		if err != nil {
			w.log.Errorf("assign code to reservation %s: %v", r.ID, err)
		} else {
			r.ReferenceCode = code
		}
	}
	if w.events == nil {
		return
	}
	if err := w.events.PublishReservationPaid(ctx, queue.NewReservationPaidEvent(r, w.now())); err != nil {
		w.log.Warnf("publish reservation.paid for %s: %v", r.ID, err)
	}
}
