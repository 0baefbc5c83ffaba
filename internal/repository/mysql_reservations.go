package repository

import (
	"context"
	"errors"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

// COALESCE keeps nullable columns scannable into plain strings.
const reservationColumns = `id, trajet_id, seats_go, seats_return, status, channel, amount,
        company_id, company_name, agency_id, agency_name, agency_phone, customer_name, customer_phone,
        COALESCE(request_id, '') AS request_id, COALESCE(reference_code, '') AS reference_code, created_at, updated_at`

// GetReservation implements ReservationRepo.  Inside a transaction the row
// is locked until commit.
func (s *MySQLStore) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	var r model.Reservation
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = ?` + s.forUpdate()
	if err := s.get(ctx, "get reservation", &r, q, id); err != nil {
		return nil, err
	}
	return &r, nil
}

// FindReservationByRequestID implements ReservationRepo.
func (s *MySQLStore) FindReservationByRequestID(ctx context.Context, requestID string) (*model.Reservation, error) {
	if requestID == "" {
		return nil, ErrNotFound
	}
	var r model.Reservation
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE request_id = ?`
	if err := s.get(ctx, "find reservation", &r, q, requestID); err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReservationsByTrip implements ReservationRepo.
func (s *MySQLStore) ListReservationsByTrip(ctx context.Context, trajetID string) ([]model.Reservation, error) {
	out := make([]model.Reservation, 0)
	q := `SELECT ` + reservationColumns + ` FROM reservations WHERE trajet_id = ? ORDER BY created_at, id`
	if err := s.selectAll(ctx, "list reservations", &out, q, trajetID); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateReservation implements ReservationRepo.  A reused request id
// yields ErrConflict.
func (s *MySQLStore) CreateReservation(ctx context.Context, r *model.Reservation) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now()
	}
	r.UpdatedAt = r.CreatedAt
	const q = `INSERT INTO reservations (id, trajet_id, seats_go, seats_return, status, channel, amount,
                   company_id, company_name, agency_id, agency_name, agency_phone, customer_name, customer_phone,
                   request_id, reference_code, created_at, updated_at)
               VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return s.exec(ctx, "create reservation", false, q,
		r.ID, r.TrajetID, r.SeatsGo, r.SeatsReturn, string(r.Status), string(r.Channel), r.Amount,
		r.CompanyID, r.CompanyName, r.AgencyID, r.AgencyName, r.AgencyPhone, r.CustomerName, r.CustomerPhone,
		nullIfEmpty(r.RequestID), nullIfEmpty(r.ReferenceCode), r.CreatedAt, r.UpdatedAt)
}

// UpdateReservationStatus implements ReservationRepo.
func (s *MySQLStore) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	const q = `UPDATE reservations SET status = ?, updated_at = ? WHERE id = ?`
	return s.exec(ctx, "update reservation status", true, q, string(status), now(), id)
}

// SetReferenceCode implements ReservationRepo.  A code is written only
// once; a reservation that already carries one is left untouched and
// ErrConflict is returned.
func (s *MySQLStore) SetReferenceCode(ctx context.Context, id, code string) error {
	const q = `UPDATE reservations SET reference_code = ?, updated_at = ? WHERE id = ? AND reference_code IS NULL`
	err := s.exec(ctx, "set reference code", true, q, code, now(), id)
	if errors.Is(err, ErrNotFound) {
		if _, gerr := s.GetReservation(ctx, id); gerr != nil {
			return gerr
		}
		return ErrConflict
	}
	return err
}

// GetCounter implements CounterRepo.
func (s *MySQLStore) GetCounter(ctx context.Context, k model.CounterKey) (*model.SequenceCounter, error) {
	var c model.SequenceCounter
	q := `SELECT company_id, agency_id, channel, last_serial, updated_at FROM sequence_counters
          WHERE company_id = ? AND agency_id = ? AND channel = ?` + s.forUpdate()
	if err := s.get(ctx, "get counter", &c, q, k.CompanyID, k.AgencyID, string(k.Channel)); err != nil {
		return nil, err
	}
	return &c, nil
}

// PutCounter implements CounterRepo.
func (s *MySQLStore) PutCounter(ctx context.Context, c *model.SequenceCounter) error {
	c.UpdatedAt = now()
	const q = `INSERT INTO sequence_counters (company_id, agency_id, channel, last_serial, updated_at)
               VALUES (?, ?, ?, ?, ?)
               ON DUPLICATE KEY UPDATE last_serial = VALUES(last_serial), updated_at = VALUES(updated_at)`
	return s.exec(ctx, "put counter", false, q, c.CompanyID, c.AgencyID, string(c.Channel), c.Last, c.UpdatedAt)
}
