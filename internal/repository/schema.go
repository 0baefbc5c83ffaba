package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Schema creates the tables used by MySQLStore.  Dates and times of trip
// instances are stored as their textual forms so the composite unique key
// matches the values the Expander computes.
const Schema = `
CREATE TABLE IF NOT EXISTS companies (
    id   VARCHAR(64)  NOT NULL PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    code VARCHAR(8)   NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS agencies (
    id         VARCHAR(64)  NOT NULL PRIMARY KEY,
    company_id VARCHAR(64)  NOT NULL,
    name       VARCHAR(255) NOT NULL,
    phone      VARCHAR(64)  NOT NULL DEFAULT '',
    KEY idx_agencies_company (company_id)
);

CREATE TABLE IF NOT EXISTS weekly_trip_templates (
    id         VARCHAR(64)  NOT NULL PRIMARY KEY,
    company_id VARCHAR(64)  NOT NULL,
    agency_id  VARCHAR(64)  NOT NULL,
    departure  VARCHAR(128) NOT NULL,
    arrival    VARCHAR(128) NOT NULL,
    unit_price BIGINT       NOT NULL,
    capacity   INT          NOT NULL,
    horaires   JSON         NOT NULL,
    active     BOOLEAN      NOT NULL DEFAULT TRUE,
    created_at DATETIME(6)  NOT NULL,
    updated_at DATETIME(6)  NOT NULL,
    KEY idx_templates_agency (company_id, agency_id)
);

CREATE TABLE IF NOT EXISTS trip_instances (
    id           VARCHAR(64)  NOT NULL PRIMARY KEY,
    company_id   VARCHAR(64)  NOT NULL,
    company_name VARCHAR(255) NOT NULL DEFAULT '',
    agency_id    VARCHAR(64)  NOT NULL,
    template_id  VARCHAR(64)  NOT NULL DEFAULT '',
    departure    VARCHAR(128) NOT NULL,
    arrival      VARCHAR(128) NOT NULL,
    trip_date    CHAR(10)     NOT NULL,
    trip_time    CHAR(5)      NOT NULL,
    unit_price   BIGINT       NOT NULL,
    capacity     INT          NOT NULL,
    created_at   DATETIME(6)  NOT NULL,
    updated_at   DATETIME(6)  NOT NULL,
    UNIQUE KEY uq_trip_instance (company_id, agency_id, departure, arrival, trip_date, trip_time),
    KEY idx_trips_search (departure, arrival, trip_date),
    KEY idx_trips_template (template_id)
);

CREATE TABLE IF NOT EXISTS reservations (
    id             VARCHAR(64)  NOT NULL PRIMARY KEY,
    trajet_id      VARCHAR(64)  NOT NULL,
    seats_go       INT          NOT NULL,
    seats_return   INT          NOT NULL DEFAULT 0,
    status         VARCHAR(32)  NOT NULL,
    channel        VARCHAR(16)  NOT NULL,
    amount         BIGINT       NOT NULL,
    company_id     VARCHAR(64)  NOT NULL,
    company_name   VARCHAR(255) NOT NULL DEFAULT '',
    agency_id      VARCHAR(64)  NOT NULL,
    agency_name    VARCHAR(255) NOT NULL DEFAULT '',
    agency_phone   VARCHAR(64)  NOT NULL DEFAULT '',
    customer_name  VARCHAR(255) NOT NULL DEFAULT '',
    customer_phone VARCHAR(64)  NOT NULL DEFAULT '',
    request_id     VARCHAR(128) NULL,
    reference_code VARCHAR(64)  NULL,
    created_at     DATETIME(6)  NOT NULL,
    updated_at     DATETIME(6)  NOT NULL,
    UNIQUE KEY uq_reservations_request (request_id),
    KEY idx_reservations_code (reference_code),
    KEY idx_reservations_trajet (trajet_id)
);

CREATE TABLE IF NOT EXISTS sequence_counters (
    company_id VARCHAR(64) NOT NULL,
    agency_id  VARCHAR(64) NOT NULL,
    channel    VARCHAR(16) NOT NULL,
    last_serial BIGINT     NOT NULL,
    updated_at DATETIME(6) NOT NULL,
    PRIMARY KEY (company_id, agency_id, channel)
)
`

// Migrate executes Schema statement by statement.  Every statement is
// idempotent so it is safe to run on each start.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
