package model

import "time"

// WeeklyTripTemplate is a recurring route definition owned by an agency.
// The Expander projects it into TripInstances over a rolling horizon.
// It corresponds to a row in the `weekly_trip_templates` table.
//
// Fields:
//  ID        – opaque identifier (UUID).
//  CompanyID – owning transport company.
//  AgencyID  – agency operating the route.
//  Departure – departure city.
//  Arrival   – arrival city.
//  UnitPrice – price of one seat in the company's currency units.
//  Capacity  – seats sellable on each generated trip.
//  Horaires  – departure times per weekday.
//  Active    – inactive templates are never expanded.
type WeeklyTripTemplate struct {
	ID        string    `db:"id" json:"id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	AgencyID  string    `db:"agency_id" json:"agency_id"`
	Departure string    `db:"departure" json:"departure"`
	Arrival   string    `db:"arrival" json:"arrival"`
	UnitPrice int64     `db:"unit_price" json:"unit_price"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Horaires  Schedule  `db:"horaires" json:"horaires"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
