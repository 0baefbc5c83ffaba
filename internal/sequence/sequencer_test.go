package sequence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/labstack/gommon/log"

	"github.com/iliyamo/transport-ticketing/internal/model"
	"github.com/iliyamo/transport-ticketing/internal/repository"
	"github.com/iliyamo/transport-ticketing/internal/repository/memstore"
)

func setup(t *testing.T) (*memstore.Store, *Sequencer) {
	t.Helper()
	st := memstore.New()
	st.PutCompany(model.Company{ID: "c1", Name: "Sahel Trans Voyage"})
	st.PutAgency(model.Agency{ID: "a1", CompanyID: "c1", Name: "agence centrale"})
	l := log.New("test")
	l.SetOutput(io.Discard)
	return st, New(st, nil, l)
}

func addReservation(t *testing.T, st *memstore.Store, id string, ch model.Channel) {
	t.Helper()
	r := &model.Reservation{
		ID: id, TrajetID: "t1", SeatsGo: 1, Status: model.StatusPaid, Channel: ch,
		CompanyID: "c1", AgencyID: "a1", AgencyName: "agence centrale",
	}
	if err := st.CreateReservation(context.Background(), r); err != nil {
		t.Fatal(err)
	}
}

func TestAssignSerials(t *testing.T) {
	st, seq := setup(t)
	addReservation(t, st, "r1", model.ChannelOnline)
	addReservation(t, st, "r2", model.ChannelOnline)
	addReservation(t, st, "r3", model.ChannelCounter)

	for _, tc := range []struct{ id, want string }{
		{"r1", "STV-A-WEB-0001"},
		{"r2", "STV-A-WEB-0002"},
		{"r3", "STV-A-GUI-0001"},
	} {
		got, err := seq.Assign(context.Background(), tc.id)
		if err != nil {
			t.Fatalf("Assign(%s): %v", tc.id, err)
		}
		if got != tc.want {
			t.Errorf("Assign(%s) = %q, want %q", tc.id, got, tc.want)
		}
	}
}

func TestAssignIsIdempotent(t *testing.T) {
	st, seq := setup(t)
	addReservation(t, st, "r1", model.ChannelOnline)
	first, err := seq.Assign(context.Background(), "r1")
	if err != nil {
		t.Fatal(err)
	}
	again, err := seq.Assign(context.Background(), "r1")
	if err != nil || again != first {
		t.Fatalf("second Assign = %q, %v; want %q", again, err, first)
	}
	c, err := st.GetCounter(context.Background(), model.CounterKey{CompanyID: "c1", AgencyID: "a1", Channel: model.ChannelOnline})
	if err != nil || c.Last != 1 {
		t.Fatalf("counter = %+v, %v; want last=1", c, err)
	}
}

func TestAssignConcurrent(t *testing.T) {
	st, seq := setup(t)
	const n = 25
	for i := 0; i < n; i++ {
		addReservation(t, st, fmt.Sprintf("r%02d", i), model.ChannelCounter)
	}
	codes := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code, err := seq.Assign(context.Background(), fmt.Sprintf("r%02d", i))
			if err != nil {
				t.Errorf("Assign: %v", err)
			}
			codes[i] = code
		}(i)
	}
	wg.Wait()
	sort.Strings(codes)
	for i, code := range codes {
		if want := fmt.Sprintf("STV-A-GUI-%04d", i+1); code != want {
			t.Fatalf("codes[%d] = %q, want %q", i, code, want)
		}
	}
}

func TestAssignFailureKeepsCounter(t *testing.T) {
	st, seq := setup(t)
	addReservation(t, st, "r1", model.ChannelOnline)
	boom := errors.New("write failed")
	st.Fail("SetReferenceCode", 0, boom)
	if _, err := seq.Assign(context.Background(), "r1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	_, err := st.GetCounter(context.Background(), model.CounterKey{CompanyID: "c1", AgencyID: "a1", Channel: model.ChannelOnline})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("counter written despite rollback: %v", err)
	}
}

func TestAssignUnknownReservation(t *testing.T) {
	_, seq := setup(t)
	if _, err := seq.Assign(context.Background(), "nope"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAbbreviation(t *testing.T) {
	cases := []struct{ name, code, want string }{
		{"Sahel Trans Voyage", "", "STV"},
		{"Bani Transport", "", "BT"},
		{"Sonef", "", "SON"},
		{"Ab", "", "AB"},
		{"Sahel Trans Voyage", "sx", "SX"},
		{"Whatever", "tr-4", "TR"},
		{"Air Bus Car Drive", "", "ABC"},
		{"123", "", "X"},
		{"", "", "X"},
	}
	for _, tc := range cases {
		if got := Abbreviation(tc.name, tc.code); got != tc.want {
			t.Errorf("Abbreviation(%q, %q) = %q, want %q", tc.name, tc.code, got, tc.want)
		}
	}
	if got := Initial("agence centrale"); got != "A" {
		t.Errorf("Initial = %q", got)
	}
	if got := Initial(" 42 "); got != "X" {
		t.Errorf("Initial(digits) = %q", got)
	}
}
