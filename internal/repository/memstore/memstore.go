// Package memstore is an in-memory repository.Store.  It serves the
// memory storage driver and the package tests.  Transactions hold a single
// store-wide lock and work on a copy of the data that replaces the live
// data on commit, so a failed transaction leaves no trace.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
)

type state struct {
	companies    map[string]model.Company
	agencies     map[string]model.Agency
	templates    map[string]model.WeeklyTripTemplate
	trips        map[string]model.TripInstance
	tripKeys     map[model.TripKey]string
	reservations map[string]model.Reservation
	requestIDs   map[string]string
	counters     map[model.CounterKey]model.SequenceCounter
}

func newState() *state {
	return &state{
		companies:    map[string]model.Company{},
		agencies:     map[string]model.Agency{},
		templates:    map[string]model.WeeklyTripTemplate{},
		trips:        map[string]model.TripInstance{},
		tripKeys:     map[model.TripKey]string{},
		reservations: map[string]model.Reservation{},
		requestIDs:   map[string]string{},
		counters:     map[model.CounterKey]model.SequenceCounter{},
	}
}

// clone copies every map.  Stored values are replaced, never mutated in
// place, so copying the maps is enough.
func (s *state) clone() *state {
	return &state{
		companies:    copyMap(s.companies),
		agencies:     copyMap(s.agencies),
		templates:    copyMap(s.templates),
		trips:        copyMap(s.trips),
		tripKeys:     copyMap(s.tripKeys),
		reservations: copyMap(s.reservations),
		requestIDs:   copyMap(s.requestIDs),
		counters:     copyMap(s.counters),
	}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type fault struct {
	after int
	err   error
}

// Store is the in-memory repository.Store.  The zero value is not usable;
// call New.
type Store struct {
	mu     sync.Mutex
	st     *state
	faults map[string]*fault
	calls  map[string]int
	clock  func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		st:     newState(),
		faults: map[string]*fault{},
		calls:  map[string]int{},
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Fail makes operation op return err once it has succeeded after times.
// Operation names are the repository.Store method names.
func (s *Store) Fail(op string, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{after: after, err: err}
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// PutCompany stores or replaces a company.
func (s *Store) PutCompany(c model.Company) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.companies[c.ID] = c
}

// PutAgency stores or replaces an agency.
func (s *Store) PutAgency(a model.Agency) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.agencies[a.ID] = a
}

func (s *Store) lock() (*view, func()) {
	s.mu.Lock()
	return &view{root: s, st: s.st}, s.mu.Unlock
}

// RunInTx implements repository.Store.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	working := s.st.clone()
	if err := fn(ctx, &view{root: s, st: working}); err != nil {
		return err
	}
	s.st = working
	return nil
}

func (s *Store) GetTemplate(ctx context.Context, id string) (*model.WeeklyTripTemplate, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetTemplate(ctx, id)
}

func (s *Store) CreateTemplate(ctx context.Context, t *model.WeeklyTripTemplate) error {
	v, unlock := s.lock()
	defer unlock()
	return v.CreateTemplate(ctx, t)
}

func (s *Store) UpdateTemplate(ctx context.Context, t *model.WeeklyTripTemplate) error {
	v, unlock := s.lock()
	defer unlock()
	return v.UpdateTemplate(ctx, t)
}

func (s *Store) GetCompany(ctx context.Context, id string) (*model.Company, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetCompany(ctx, id)
}

func (s *Store) GetAgency(ctx context.Context, id string) (*model.Agency, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetAgency(ctx, id)
}

func (s *Store) GetTrip(ctx context.Context, id string) (*model.TripInstance, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetTrip(ctx, id)
}

func (s *Store) GetTripForUpdate(ctx context.Context, id string) (*model.TripInstance, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetTripForUpdate(ctx, id)
}

func (s *Store) FindTripByKey(ctx context.Context, k model.TripKey) (*model.TripInstance, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.FindTripByKey(ctx, k)
}

func (s *Store) ListTrips(ctx context.Context, f repository.TripFilter) ([]model.TripInstance, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.ListTrips(ctx, f)
}

func (s *Store) CreateTrip(ctx context.Context, t *model.TripInstance) error {
	v, unlock := s.lock()
	defer unlock()
	return v.CreateTrip(ctx, t)
}

func (s *Store) SyncTrip(ctx context.Context, id string, sync model.TripSync) error {
	v, unlock := s.lock()
	defer unlock()
	return v.SyncTrip(ctx, id, sync)
}

func (s *Store) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetReservation(ctx, id)
}

func (s *Store) FindReservationByRequestID(ctx context.Context, requestID string) (*model.Reservation, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.FindReservationByRequestID(ctx, requestID)
}

func (s *Store) ListReservationsByTrip(ctx context.Context, trajetID string) ([]model.Reservation, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.ListReservationsByTrip(ctx, trajetID)
}

func (s *Store) CreateReservation(ctx context.Context, r *model.Reservation) error {
	v, unlock := s.lock()
	defer unlock()
	return v.CreateReservation(ctx, r)
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status model.ReservationStatus) error {
	v, unlock := s.lock()
	defer unlock()
	return v.UpdateReservationStatus(ctx, id, status)
}

func (s *Store) SetReferenceCode(ctx context.Context, id, code string) error {
	v, unlock := s.lock()
	defer unlock()
	return v.SetReferenceCode(ctx, id, code)
}

func (s *Store) GetCounter(ctx context.Context, k model.CounterKey) (*model.SequenceCounter, error) {
	v, unlock := s.lock()
	defer unlock()
	return v.GetCounter(ctx, k)
}

func (s *Store) PutCounter(ctx context.Context, c *model.SequenceCounter) error {
	v, unlock := s.lock()
	defer unlock()
	return v.PutCounter(ctx, c)
}

// view runs operations against one state.  The caller holds root.mu.
type view struct {
	root *Store
	st   *state
}

func (v *view) check(op string) error {
	v.root.calls[op]++
	f, ok := v.root.faults[op]
	if !ok {
		return nil
	}
	if f.after > 0 {
		f.after--
		return nil
	}
	return f.err
}

func (v *view) now() time.Time { return v.root.clock() }

// RunInTx joins the enclosing transaction.  Non-transactional views never
// escape the Store wrappers, so every view reaching here is serialized by
// root.mu already.
func (v *view) RunInTx(ctx context.Context, fn func(ctx context.Context, tx repository.Store) error) error {
	return fn(ctx, v)
}

func (v *view) GetTemplate(_ context.Context, id string) (*model.WeeklyTripTemplate, error) {
	if err := v.check("GetTemplate"); err != nil {
		return nil, err
	}
	t, ok := v.st.templates[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (v *view) CreateTemplate(_ context.Context, t *model.WeeklyTripTemplate) error {
	if err := v.check("CreateTemplate"); err != nil {
		return err
	}
	if _, ok := v.st.templates[t.ID]; ok {
		return repository.ErrConflict
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = v.now()
	}
	t.UpdatedAt = t.CreatedAt
	v.st.templates[t.ID] = *t
	return nil
}

func (v *view) UpdateTemplate(_ context.Context, t *model.WeeklyTripTemplate) error {
	if err := v.check("UpdateTemplate"); err != nil {
		return err
	}
	cur, ok := v.st.templates[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	t.UpdatedAt = v.now()
	cur.Departure, cur.Arrival = t.Departure, t.Arrival
	cur.UnitPrice, cur.Capacity = t.UnitPrice, t.Capacity
	cur.Horaires, cur.Active = t.Horaires, t.Active
	cur.UpdatedAt = t.UpdatedAt
	v.st.templates[t.ID] = cur
	return nil
}

func (v *view) GetCompany(_ context.Context, id string) (*model.Company, error) {
	if err := v.check("GetCompany"); err != nil {
		return nil, err
	}
	c, ok := v.st.companies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (v *view) GetAgency(_ context.Context, id string) (*model.Agency, error) {
	if err := v.check("GetAgency"); err != nil {
		return nil, err
	}
	a, ok := v.st.agencies[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (v *view) GetTrip(_ context.Context, id string) (*model.TripInstance, error) {
	if err := v.check("GetTrip"); err != nil {
		return nil, err
	}
	t, ok := v.st.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

// GetTripForUpdate needs no row lock: the transaction already holds the
// store lock.
func (v *view) GetTripForUpdate(_ context.Context, id string) (*model.TripInstance, error) {
	if err := v.check("GetTripForUpdate"); err != nil {
		return nil, err
	}
	t, ok := v.st.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &t, nil
}

func (v *view) FindTripByKey(_ context.Context, k model.TripKey) (*model.TripInstance, error) {
	if err := v.check("FindTripByKey"); err != nil {
		return nil, err
	}
	id, ok := v.st.tripKeys[k]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t := v.st.trips[id]
	return &t, nil
}

func (v *view) ListTrips(_ context.Context, f repository.TripFilter) ([]model.TripInstance, error) {
	if err := v.check("ListTrips"); err != nil {
		return nil, err
	}
	match := func(want, got string) bool { return want == "" || want == got }
	out := make([]model.TripInstance, 0)
	for _, t := range v.st.trips {
		if match(f.CompanyID, t.CompanyID) && match(f.AgencyID, t.AgencyID) &&
			match(f.TemplateID, t.TemplateID) && match(f.Departure, t.Departure) &&
			match(f.Arrival, t.Arrival) && match(f.Date, t.Date) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) CreateTrip(_ context.Context, t *model.TripInstance) error {
	if err := v.check("CreateTrip"); err != nil {
		return err
	}
	if _, ok := v.st.tripKeys[t.Key()]; ok {
		return repository.ErrConflict
	}
	if _, ok := v.st.trips[t.ID]; ok {
		return repository.ErrConflict
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = v.now()
	}
	t.UpdatedAt = t.CreatedAt
	v.st.trips[t.ID] = *t
	v.st.tripKeys[t.Key()] = t.ID
	return nil
}

func (v *view) SyncTrip(_ context.Context, id string, s model.TripSync) error {
	if err := v.check("SyncTrip"); err != nil {
		return err
	}
	t, ok := v.st.trips[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.CompanyName, t.TemplateID = s.CompanyName, s.TemplateID
	t.UnitPrice, t.Capacity = s.UnitPrice, s.Capacity
	t.UpdatedAt = v.now()
	v.st.trips[id] = t
	return nil
}

func (v *view) GetReservation(_ context.Context, id string) (*model.Reservation, error) {
	if err := v.check("GetReservation"); err != nil {
		return nil, err
	}
	r, ok := v.st.reservations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &r, nil
}

func (v *view) FindReservationByRequestID(_ context.Context, requestID string) (*model.Reservation, error) {
	if err := v.check("FindReservationByRequestID"); err != nil {
		return nil, err
	}
	id, ok := v.st.requestIDs[requestID]
	if !ok || requestID == "" {
		return nil, repository.ErrNotFound
	}
	r := v.st.reservations[id]
	return &r, nil
}

func (v *view) ListReservationsByTrip(_ context.Context, trajetID string) ([]model.Reservation, error) {
	if err := v.check("ListReservationsByTrip"); err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0)
	for _, r := range v.st.reservations {
		if r.TrajetID == trajetID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) CreateReservation(_ context.Context, r *model.Reservation) error {
	if err := v.check("CreateReservation"); err != nil {
		return err
	}
	if _, ok := v.st.reservations[r.ID]; ok {
		return repository.ErrConflict
	}
	if r.RequestID != "" {
		if _, ok := v.st.requestIDs[r.RequestID]; ok {
			return repository.ErrConflict
		}
		v.st.requestIDs[r.RequestID] = r.ID
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = v.now()
	}
	r.UpdatedAt = r.CreatedAt
	v.st.reservations[r.ID] = *r
	return nil
}

func (v *view) UpdateReservationStatus(_ context.Context, id string, status model.ReservationStatus) error {
	if err := v.check("UpdateReservationStatus"); err != nil {
		return err
	}
	r, ok := v.st.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = v.now()
	v.st.reservations[id] = r
	return nil
}

func (v *view) SetReferenceCode(_ context.Context, id, code string) error {
	if err := v.check("SetReferenceCode"); err != nil {
		return err
	}
	r, ok := v.st.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.ReferenceCode != "" {
		return repository.ErrConflict
	}
	r.ReferenceCode = code
	r.UpdatedAt = v.now()
	v.st.reservations[id] = r
	return nil
}

func (v *view) GetCounter(_ context.Context, k model.CounterKey) (*model.SequenceCounter, error) {
	if err := v.check("GetCounter"); err != nil {
		return nil, err
	}
	c, ok := v.st.counters[k]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (v *view) PutCounter(_ context.Context, c *model.SequenceCounter) error {
	if err := v.check("PutCounter"); err != nil {
		return err
	}
	c.UpdatedAt = v.now()
	v.st.counters[c.Key()] = *c
	return nil
}
