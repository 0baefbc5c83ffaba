package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

const tripColumns = `id, company_id, company_name, agency_id, template_id, departure, arrival, trip_date, trip_time, unit_price, capacity, created_at, updated_at`

// GetTrip implements TripRepo.
func (s *MySQLStore) GetTrip(ctx context.Context, id string) (*model.TripInstance, error) {
	var t model.TripInstance
	if err := s.get(ctx, "get trip", &t, `SELECT `+tripColumns+` FROM trip_instances WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTripForUpdate implements TripRepo.
func (s *MySQLStore) GetTripForUpdate(ctx context.Context, id string) (*model.TripInstance, error) {
	var t model.TripInstance
	q := `SELECT ` + tripColumns + ` FROM trip_instances WHERE id = ?` + s.forUpdate()
	if err := s.get(ctx, "lock trip", &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindTripByKey implements TripRepo.
func (s *MySQLStore) FindTripByKey(ctx context.Context, k model.TripKey) (*model.TripInstance, error) {
	var t model.TripInstance
	const q = `SELECT ` + tripColumns + ` FROM trip_instances
               WHERE company_id = ? AND agency_id = ? AND departure = ? AND arrival = ? AND trip_date = ? AND trip_time = ?`
	if err := s.get(ctx, "find trip", &t, q, k.CompanyID, k.AgencyID, k.Departure, k.Arrival, k.Date, k.Time); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTrips implements TripRepo.  Results are ordered by date and time.
func (s *MySQLStore) ListTrips(ctx context.Context, f TripFilter) ([]model.TripInstance, error) {
	conds := make([]string, 0, 6)
	args := make([]any, 0, 6)
	add := func(col, v string) {
		if v != "" {
			conds = append(conds, col+" = ?")
			args = append(args, v)
		}
	}
	add("company_id", f.CompanyID)
	add("agency_id", f.AgencyID)
	add("template_id", f.TemplateID)
	add("departure", f.Departure)
	add("arrival", f.Arrival)
	add("trip_date", f.Date)
	q := `SELECT ` + tripColumns + ` FROM trip_instances`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY trip_date, trip_time, id`
	trips := make([]model.TripInstance, 0)
	if err := s.selectAll(ctx, "list trips", &trips, q, args...); err != nil {
		return nil, err
	}
	return trips, nil
}

// CreateTrip implements TripRepo.  A second instance with the same
// composite key yields ErrConflict.
func (s *MySQLStore) CreateTrip(ctx context.Context, t *model.TripInstance) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	t.UpdatedAt = t.CreatedAt
	const q = `INSERT INTO trip_instances (` + tripColumns + `)
               VALUES (:id, :company_id, :company_name, :agency_id, :template_id, :departure, :arrival, :trip_date, :trip_time, :unit_price, :capacity, :created_at, :updated_at)`
	query, args, err := sqlx.Named(q, t)
	if err != nil {
		return err
	}
	return s.exec(ctx, "create trip", false, query, args...)
}

// SyncTrip implements TripRepo.
func (s *MySQLStore) SyncTrip(ctx context.Context, id string, sync model.TripSync) error {
	const q = `UPDATE trip_instances
               SET company_name = ?, template_id = ?, unit_price = ?, capacity = ?, updated_at = ?
               WHERE id = ?`
	// MySQL reports zero affected rows for an UPDATE that changes nothing,
	// so existence is not checked here.
	return s.exec(ctx, "sync trip", false, q, sync.CompanyName, sync.TemplateID, sync.UnitPrice, sync.Capacity, now(), id)
}
