package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Weekday indexes the slots of a Schedule.  Monday is the first slot,
// unlike time.Weekday which starts on Sunday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [7]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// String returns the lowercase weekday name used as a horaires key.
func (d Weekday) String() string {
	if d < Monday || d > Sunday {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return weekdayNames[d]
}

// ParseWeekday maps a horaires key to a Weekday.  Matching ignores case
// and surrounding spaces.
func ParseWeekday(s string) (Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range weekdayNames {
		if n == s {
			return Weekday(i), true
		}
	}
	return 0, false
}

// WeekdayOf returns the Weekday of the calendar date of t.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// ParseClock validates a time of day and returns it normalized to HH:MM.
func ParseClock(s string) (string, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return t.Format("15:04"), true
}

// Schedule holds the departure times of a weekly template, one slot per
// weekday.  Each slot is sorted and free of duplicates once built through
// ScheduleFromMap.
type Schedule [7][]string

// ScheduleError describes the first invalid entry found while building a
// Schedule from its loosely typed form.
type ScheduleError struct {
	Key   string
	Value string
}

func (e *ScheduleError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("horaires: unknown weekday %q", e.Key)
	}
	return fmt.Sprintf("horaires: malformed time %q for %s", e.Value, e.Key)
}

// ScheduleFromMap converts a weekday name -> times map into a Schedule.
// Unknown weekday names and malformed times are rejected.
func ScheduleFromMap(m map[string][]string) (Schedule, error) {
	var s Schedule
	for key, times := range m {
		d, ok := ParseWeekday(key)
		if !ok {
			return Schedule{}, &ScheduleError{Key: key}
		}
		for _, raw := range times {
			hm, ok := ParseClock(raw)
			if !ok {
				return Schedule{}, &ScheduleError{Key: key, Value: raw}
			}
			s[d] = append(s[d], hm)
		}
	}
	for d := range s {
		s[d] = sortedUnique(s[d])
	}
	return s, nil
}

func sortedUnique(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	sort.Strings(in)
	out := in[:1]
	for _, v := range in[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// Times returns the configured times for d.
func (s Schedule) Times(d Weekday) []string {
	if d < Monday || d > Sunday {
		return nil
	}
	return s[d]
}

// IsEmpty reports whether no weekday has any time configured.
func (s Schedule) IsEmpty() bool {
	for _, t := range s {
		if len(t) > 0 {
			return false
		}
	}
	return true
}

// Map returns the weekday name -> times form, omitting empty weekdays.
func (s Schedule) Map() map[string][]string {
	m := make(map[string][]string)
	for d, times := range s {
		if len(times) > 0 {
			m[weekdayNames[d]] = append([]string(nil), times...)
		}
	}
	return m
}

func (s Schedule) MarshalJSON() ([]byte, error) { return json.Marshal(s.Map()) }

func (s *Schedule) UnmarshalJSON(b []byte) error {
	var m map[string][]string
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	parsed, err := ScheduleFromMap(m)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Value stores the schedule as a JSON column.
func (s Schedule) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan reads a JSON column written by Value.
func (s *Schedule) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = Schedule{}
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	}
	return errors.New("horaires: unsupported column type")
}
