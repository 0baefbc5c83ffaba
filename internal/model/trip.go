package model

import "time"

// DateLayout is the layout of TripInstance.Date.
const DateLayout = "2006-01-02"

// TripInstance is one concrete dated departure generated from a
// WeeklyTripTemplate.  TemplateID is a non-owning back-reference; the
// instance keeps living when its template changes.
type TripInstance struct {
	ID          string    `db:"id" json:"id"`
	CompanyID   string    `db:"company_id" json:"company_id"`
	CompanyName string    `db:"company_name" json:"company_name"`
	AgencyID    string    `db:"agency_id" json:"agency_id"`
	TemplateID  string    `db:"template_id" json:"weekly_trip_template_id"`
	Departure   string    `db:"departure" json:"departure"`
	Arrival     string    `db:"arrival" json:"arrival"`
	Date        string    `db:"trip_date" json:"date"`
	Time        string    `db:"trip_time" json:"time"`
	UnitPrice   int64     `db:"unit_price" json:"unit_price"`
	Capacity    int       `db:"capacity" json:"capacity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Key returns the composite key identifying the instance.
func (t *TripInstance) Key() TripKey {
	return TripKey{
		CompanyID: t.CompanyID,
		AgencyID:  t.AgencyID,
		Departure: t.Departure,
		Arrival:   t.Arrival,
		Date:      t.Date,
		Time:      t.Time,
	}
}

// TripKey is the logical unique key of a TripInstance.
type TripKey struct {
	CompanyID string
	AgencyID  string
	Departure string
	Arrival   string
	Date      string
	Time      string
}

// TripSync carries the template-owned fields the Expander refreshes on an
// existing instance.
type TripSync struct {
	CompanyName string
	TemplateID  string
	UnitPrice   int64
	Capacity    int
}
