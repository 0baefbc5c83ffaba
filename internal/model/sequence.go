package model

import "time"

// CounterKey scopes a SequenceCounter.
type CounterKey struct {
	CompanyID string
	AgencyID  string
	Channel   Channel
}

// SequenceCounter is the last serial handed out for a reference code
// scope.  It only ever grows.
type SequenceCounter struct {
	CompanyID string    `db:"company_id"`
	AgencyID  string    `db:"agency_id"`
	Channel   Channel   `db:"channel"`
	Last      int64     `db:"last_serial"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Key returns the scope of the counter.
func (c *SequenceCounter) Key() CounterKey {
	return CounterKey{CompanyID: c.CompanyID, AgencyID: c.AgencyID, Channel: c.Channel}
}
