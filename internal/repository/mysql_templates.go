package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/transport-ticketing/internal/model"
)

const templateColumns = `id, company_id, agency_id, departure, arrival, unit_price, capacity, horaires, active, created_at, updated_at`

// GetTemplate implements TemplateRepo.
func (s *MySQLStore) GetTemplate(ctx context.Context, id string) (*model.WeeklyTripTemplate, error) {
	var t model.WeeklyTripTemplate
	q := `SELECT ` + templateColumns + ` FROM weekly_trip_templates WHERE id = ?`
	if err := s.get(ctx, "get template", &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTemplate implements TemplateRepo.  CreatedAt and UpdatedAt are set
// when zero.
func (s *MySQLStore) CreateTemplate(ctx context.Context, t *model.WeeklyTripTemplate) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now()
	}
	t.UpdatedAt = t.CreatedAt
	const q = `INSERT INTO weekly_trip_templates (` + templateColumns + `)
               VALUES (:id, :company_id, :agency_id, :departure, :arrival, :unit_price, :capacity, :horaires, :active, :created_at, :updated_at)`
	query, args, err := sqlx.Named(q, t)
	if err != nil {
		return err
	}
	return s.exec(ctx, "create template", false, query, args...)
}

// UpdateTemplate implements TemplateRepo.  Ownership fields and CreatedAt
// are never rewritten.
func (s *MySQLStore) UpdateTemplate(ctx context.Context, t *model.WeeklyTripTemplate) error {
	t.UpdatedAt = now()
	const q = `UPDATE weekly_trip_templates
               SET departure = ?, arrival = ?, unit_price = ?, capacity = ?, horaires = ?, active = ?, updated_at = ?
               WHERE id = ?`
	return s.exec(ctx, "update template", true, q,
		t.Departure, t.Arrival, t.UnitPrice, t.Capacity, t.Horaires, t.Active, t.UpdatedAt, t.ID)
}

// GetCompany implements DirectoryRepo.
func (s *MySQLStore) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	var c model.Company
	if err := s.get(ctx, "get company", &c, `SELECT id, name, code FROM companies WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAgency implements DirectoryRepo.
func (s *MySQLStore) GetAgency(ctx context.Context, id string) (*model.Agency, error) {
	var a model.Agency
	if err := s.get(ctx, "get agency", &a, `SELECT id, company_id, name, phone FROM agencies WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}
