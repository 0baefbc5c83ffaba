package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

// Store is the part of repository.Store the Expander uses.
type Store interface {
	repository.TemplateRepo
	repository.DirectoryRepo
	repository.TripRepo
}

// ExpanderConfig configures an Expander.
type ExpanderConfig struct {
	HorizonDays int            // calendar days kept materialized, today included
	Location    *time.Location // decides which day is today
	Now         func() time.Time
	Logger      *log.Logger
}

// Expander projects weekly templates into trip instances.  Expand is
// idempotent: instances are looked up by their composite key and updated
// in place, so any number of runs over an unchanged template converges to
// the same instance set.
type Expander struct {
	store   Store
	horizon int
	loc     *time.Location
	now     func() time.Time
	log     *log.Logger
}

// NewExpander returns an Expander reading and writing through store.
func NewExpander(store Store, cfg ExpanderConfig) *Expander {
	e := &Expander{store: store, horizon: cfg.HorizonDays, loc: cfg.Location, now: cfg.Now, log: cfg.Logger}
	if e.horizon <= 0 {
		e.horizon = 8
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.log == nil {
		e.log = log.New("schedule")
	}
	return e
}

// ExpandResult lists the instances touched by one Expand run.
type ExpandResult struct {
	TemplateID string   `json:"template_id"`
	From       string   `json:"from"`
	To         string   `json:"to"`
	Created    []string `json:"created"`
	Updated    []string `json:"updated"`
	Unchanged  int      `json:"unchanged"`
	// Stranded are instances of the template inside the horizon whose
	// weekday or time is no longer configured.  They are kept because
	// reservations may reference them.
	Stranded []string `json:"stranded"`
}

// Expand guarantees that every configured departure of the template in
// the horizon exists as exactly one trip instance carrying the template's
// current price, capacity and company name.  The first store failure
// aborts the run; instances written before it are kept and a new run
// picks up where it stopped.
func (e *Expander) Expand(ctx context.Context, templateID string) (*ExpandResult, error) {
	tmpl, err := e.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", templateID, err)
	}
	today := e.today()
	last := today.AddDate(0, 0, e.horizon-1)
	res := &ExpandResult{
		TemplateID: tmpl.ID,
		From:       today.Format(model.DateLayout),
		To:         last.Format(model.DateLayout),
		Created:    []string{},
		Updated:    []string{},
		Stranded:   []string{},
	}
	if !tmpl.Active {
		e.log.Infof("template %s is inactive, nothing to expand", tmpl.ID)
		return res, nil
	}
	company, err := e.store.GetCompany(ctx, tmpl.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("load company %s: %w", tmpl.CompanyID, err)
	}

	configured := make(map[[2]string]bool)
	for i := 0; i < e.horizon; i++ {
		day := today.AddDate(0, 0, i)
		date := day.Format(model.DateLayout)
		for _, hm := range tmpl.Horaires.Times(model.WeekdayOf(day)) {
			configured[[2]string{date, hm}] = true
			id, outcome, err := e.upsert(ctx, tmpl, company.Name, date, hm)
			if err != nil {
				e.log.Errorf("expand template %s stopped at %s %s: %v", tmpl.ID, date, hm, err)
				return res, fmt.Errorf("expand %s %s: %w", date, hm, err)
			}
			switch outcome {
			case created:
				res.Created = append(res.Created, id)
			case updated:
				res.Updated = append(res.Updated, id)
			default:
				res.Unchanged++
			}
		}
	}

	existing, err := e.store.ListTrips(ctx, repository.TripFilter{TemplateID: tmpl.ID})
	if err != nil {
		return res, fmt.Errorf("list instances of template %s: %w", tmpl.ID, err)
	}
	for _, t := range existing {
		if t.Date < res.From || t.Date > res.To || configured[[2]string{t.Date, t.Time}] {
			continue
		}
		res.Stranded = append(res.Stranded, t.ID)
		e.log.Warnf("trip %s (%s %s) of template %s is no longer scheduled", t.ID, t.Date, t.Time, tmpl.ID)
	}
	e.log.Infof("expanded template %s over %s..%s: created=%d updated=%d unchanged=%d stranded=%d",
		tmpl.ID, res.From, res.To, len(res.Created), len(res.Updated), res.Unchanged, len(res.Stranded))
	return res, nil
}

// today returns midnight of the current day in the configured location.
func (e *Expander) today() time.Time {
	n := e.now().In(e.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, e.loc)
}

type outcome int

const (
	unchanged outcome = iota
	updated
	created
)

func (e *Expander) upsert(ctx context.Context, tmpl *model.WeeklyTripTemplate, companyName, date, hm string) (string, outcome, error) {
	key := model.TripKey{
		CompanyID: tmpl.CompanyID,
		AgencyID:  tmpl.AgencyID,
		Departure: tmpl.Departure,
		Arrival:   tmpl.Arrival,
		Date:      date,
		Time:      hm,
	}
	sync := model.TripSync{
		CompanyName: companyName,
		TemplateID:  tmpl.ID,
		UnitPrice:   tmpl.UnitPrice,
		Capacity:    tmpl.Capacity,
	}
	trip, err := e.store.FindTripByKey(ctx, key)
	if err == nil {
		return e.sync(ctx, trip, sync)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", unchanged, err
	}
	trip = &model.TripInstance{
		ID:          uuid.NewString(),
		CompanyID:   key.CompanyID,
		CompanyName: companyName,
		AgencyID:    key.AgencyID,
		TemplateID:  tmpl.ID,
		Departure:   key.Departure,
		Arrival:     key.Arrival,
		Date:        date,
		Time:        hm,
		UnitPrice:   tmpl.UnitPrice,
		Capacity:    tmpl.Capacity,
		CreatedAt:   e.now().UTC(),
	}
	err = e.store.CreateTrip(ctx, trip)
	if err == nil {
		return trip.ID, created, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return "", unchanged, err
	}
	// Another run created the instance between the lookup and the insert.
	trip, err = e.store.FindTripByKey(ctx, key)
	if err != nil {
		return "", unchanged, err
	}
	return e.sync(ctx, trip, sync)
}

func (e *Expander) sync(ctx context.Context, trip *model.TripInstance, s model.TripSync) (string, outcome, error) {
	if trip.CompanyName == s.CompanyName && trip.TemplateID == s.TemplateID &&
		trip.UnitPrice == s.UnitPrice && trip.Capacity == s.Capacity {
		return trip.ID, unchanged, nil
	}
	if err := e.store.SyncTrip(ctx, trip.ID, s); err != nil {
		return "", unchanged, err
	}
	return trip.ID, updated, nil
}
