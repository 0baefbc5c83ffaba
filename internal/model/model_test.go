package model

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestWeekdayOf(t *testing.T) {
	cases := map[string]Weekday{
		"2026-10-12": Monday,
		"2026-10-14": Wednesday,
		"2026-10-18": Sunday,
	}
	for date, want := range cases {
		d, _ := time.Parse(DateLayout, date)
		if got := WeekdayOf(d); got != want {
			t.Errorf("%s: got %s want %s", date, got, want)
		}
	}
}

func TestScheduleFromMap(t *testing.T) {
	s, err := ScheduleFromMap(map[string][]string{
		"Monday": {"14:00", "8:00", "08:00"},
		"friday": {"23:59"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Times(Monday); !reflect.DeepEqual(got, []string{"08:00", "14:00"}) {
		t.Fatalf("monday times: %v", got)
	}
	if got := s.Times(Sunday); len(got) != 0 {
		t.Fatalf("sunday should be empty: %v", got)
	}
	if s.IsEmpty() {
		t.Fatalf("schedule should not be empty")
	}
}

func TestScheduleFromMapRejects(t *testing.T) {
	for name, in := range map[string]map[string][]string{
		"unknown weekday": {"funday": {"08:00"}},
		"bad time":        {"monday": {"25:00"}},
		"garbage":         {"monday": {"8h"}},
	} {
		_, err := ScheduleFromMap(in)
		var se *ScheduleError
		if !errors.As(err, &se) {
			t.Errorf("%s: expected ScheduleError, got %v", name, err)
		}
	}
}

func TestScheduleJSONRoundTrip(t *testing.T) {
	var s Schedule
	if err := json.Unmarshal([]byte(`{"tuesday":["09:30","07:15"]}`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"tuesday":["07:15","09:30"]}` {
		t.Fatalf("got %s", b)
	}
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to ReservationStatus
		ok       bool
	}{
		{StatusPending, StatusPaymentInProgress, true},
		{StatusPending, StatusPaid, true},
		{StatusProofReceived, StatusPaid, true},
		{StatusPaid, StatusProofReceived, false},
		{StatusPaid, StatusCancelled, true},
		{StatusPaid, StatusRefused, false},
		{StatusProofReceived, StatusRefused, true},
		{StatusCancelled, StatusPaid, false},
		{StatusRefused, StatusCancelled, false},
		{StatusPending, StatusPending, false},
		{StatusPending, "shipped", false},
	}
	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v want %v", c.from, c.to, got, c.ok)
		}
	}
}
