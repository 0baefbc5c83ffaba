package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
	"github.com/iliyamo/transport-ticketing/internal/repository/memstore"
)

func res(id, trip string, seats int, status model.ReservationStatus) model.Reservation {
	return model.Reservation{ID: id, TrajetID: trip, SeatsGo: seats, Status: status, Channel: model.ChannelOnline}
}

func TestCompute(t *testing.T) {
	trip := &model.TripInstance{ID: "t1", Capacity: 10}
	cases := []struct {
		name        string
		trip        *model.TripInstance
		rs          []model.Reservation
		remaining   int
		provisional int
		full        bool
	}{
		{
			name:      "paid reservations consume",
			trip:      trip,
			rs:        []model.Reservation{res("r1", "t1", 4, model.StatusPaid), res("r2", "t1", 5, model.StatusPaid)},
			remaining: 1,
		},
		{
			name: "other statuses do not consume",
			trip: trip,
			rs: []model.Reservation{
				res("r1", "t1", 3, model.StatusPending),
				res("r2", "t1", 3, model.StatusPaymentInProgress),
				res("r3", "t1", 2, model.StatusProofReceived),
				res("r4", "t1", 9, model.StatusCancelled),
				res("r5", "t1", 9, model.StatusRefused),
			},
			remaining:   10,
			provisional: 2,
		},
		{
			name:      "other trips ignored",
			trip:      trip,
			rs:        []model.Reservation{res("r1", "t2", 10, model.StatusPaid)},
			remaining: 10,
		},
		{
			name:      "overbooked clamps to zero",
			trip:      trip,
			rs:        []model.Reservation{res("r1", "t1", 8, model.StatusPaid), res("r2", "t1", 7, model.StatusPaid)},
			remaining: 0,
			full:      true,
		},
		{
			name:      "missing capacity uses default",
			trip:      &model.TripInstance{ID: "t1"},
			rs:        []model.Reservation{res("r1", "t1", 20, model.StatusPaid)},
			remaining: 50,
		},
	}
	calc := New(70)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := calc.Compute(tc.trip, tc.rs)
			if a.Remaining != tc.remaining || a.Provisional != tc.provisional || a.FullyBooked != tc.full {
				t.Fatalf("got remaining=%d provisional=%d full=%v, want %d %d %v",
					a.Remaining, a.Provisional, a.FullyBooked, tc.remaining, tc.provisional, tc.full)
			}
			if a.Remaining > a.Capacity {
				t.Fatalf("remaining %d exceeds capacity %d", a.Remaining, a.Capacity)
			}
		})
	}
}

func TestServiceSearch(t *testing.T) {
	ctx := context.Background()
	st := memstore.New()
	for _, tr := range []model.TripInstance{
		{ID: "t1", CompanyID: "c1", AgencyID: "a1", Departure: "Bamako", Arrival: "Kayes", Date: "2026-10-12", Time: "08:00", Capacity: 10},
		{ID: "t2", CompanyID: "c1", AgencyID: "a1", Departure: "Bamako", Arrival: "Kayes", Date: "2026-10-12", Time: "14:00", Capacity: 10},
		{ID: "t3", CompanyID: "c1", AgencyID: "a1", Departure: "Bamako", Arrival: "Sikasso", Date: "2026-10-12", Time: "08:00", Capacity: 10},
	} {
		tr := tr
		if err := st.CreateTrip(ctx, &tr); err != nil {
			t.Fatal(err)
		}
	}
	r := res("r1", "t1", 6, model.StatusPaid)
	if err := st.CreateReservation(ctx, &r); err != nil {
		t.Fatal(err)
	}

	svc := NewService(New(70), st)
	got, err := svc.Search(ctx, repository.TripFilter{Departure: "Bamako", Arrival: "Kayes", Date: "2026-10-12"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d trips, want 2", len(got))
	}
	if got[0].ID != "t1" || got[0].Availability.Remaining != 4 {
		t.Errorf("t1 remaining = %d", got[0].Availability.Remaining)
	}
	if got[1].Availability.Remaining != 10 {
		t.Errorf("t2 remaining = %d", got[1].Availability.Remaining)
	}

	one, err := svc.Trip(ctx, "t1")
	if err != nil || one.Availability.Consumed != 6 {
		t.Fatalf("Trip = %+v, %v", one, err)
	}
	if _, err := svc.Trip(ctx, "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
