// Copyright (c) 2026 Portaria. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package clock supplies the current time converted into the condominium's
local calendar, plus the calendar-date and time-of-day value types the
authorization status engine evaluates against.

Architecture:

  - Clock: Minimal now() abstraction so the status engine stays a pure
    function of injected time in tests.
  - Calendar: A Clock bound to an IANA time zone, yielding local dates.
  - Date / TimeOfDay: Calendar values with no instant semantics. The
    authorization validity window is a pair of Dates (inclusive); the
    recurrence window is a pair of TimeOfDay values.

Status is computed lazily on every read, so there is no scheduled
transitioning anywhere in the system; this package is the single boundary
through which wall-clock time enters the domain.
*/
package clock

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// # Clock Abstraction

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns a Clock backed by the real wall clock.
func System() Clock { return systemClock{} }

// fixedClock always returns the same instant. Test helper.
type fixedClock struct{ instant time.Time }

func (c fixedClock) Now() time.Time { return c.instant }

// Fixed returns a Clock frozen at the given instant.
func Fixed(instant time.Time) Clock { return fixedClock{instant: instant} }

// # Calendar

// Calendar binds a [Clock] to the condominium's IANA time zone.
type Calendar struct {
	clock Clock
	loc   *time.Location
}

// NewCalendar resolves the IANA zone name and returns a ready Calendar.
func NewCalendar(clock Clock, zone string) (*Calendar, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("clock: unknown time zone %q: %w", zone, err)
	}
	return &Calendar{clock: clock, loc: loc}, nil
}

// Now returns the current instant (UTC-independent).
func (c *Calendar) Now() time.Time { return c.clock.Now() }

// LocalNow returns the current instant converted to the calendar's zone.
func (c *Calendar) LocalNow() time.Time { return c.clock.Now().In(c.loc) }

// Today returns the current calendar date in the calendar's zone.
func (c *Calendar) Today() Date { return DateFrom(c.LocalNow()) }

// LocalTimeOfDay returns the current wall-clock time in the calendar's zone.
func (c *Calendar) LocalTimeOfDay() TimeOfDay { return TimeOfDayFrom(c.LocalNow()) }

// Location exposes the underlying zone (status responses echo it).
func (c *Calendar) Location() *time.Location { return c.loc }

// # Calendar Date

// Date is a calendar date with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateFrom extracts the calendar date of an instant in the instant's location.
func DateFrom(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// ParseDate parses an ISO "2006-01-02" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("clock: invalid date %q: %w", s, err)
	}
	return DateFrom(t), nil
}

// String renders the ISO form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.Year == 0 && d.Month == 0 && d.Day == 0 }

// At returns the midnight instant of the date in the given location.
func (d Date) At(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Weekday returns the day of week of the date.
func (d Date) Weekday() time.Weekday {
	return d.At(time.UTC).Weekday()
}

// Compare returns -1, 0 or +1 comparing d against other chronologically.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Compare(other) < 0 }

// After reports whether d is strictly later than other.
func (d Date) After(other Date) bool { return d.Compare(other) > 0 }

// Equal reports whether d and other are the same calendar day.
func (d Date) Equal(other Date) bool { return d.Compare(other) == 0 }

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}

// MarshalJSON encodes the date as a quoted ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted ISO string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("clock: invalid date JSON %s", s)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements [driver.Valuer] so pgx can bind Dates to DATE columns.
func (d Date) Value() (driver.Value, error) {
	return d.At(time.UTC), nil
}

// Scan implements [sql.Scanner] for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateFrom(v)
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("clock: cannot scan %T into Date", src)
	}
}

// # Time Of Day

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// TimeOfDayFrom extracts the wall-clock time of an instant in the
// instant's location.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// ParseTimeOfDay parses "15:04" (seconds, if present, are discarded).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		if t, err = time.Parse("15:04:05", s); err != nil {
			return 0, fmt.Errorf("clock: invalid time of day %q", s)
		}
	}
	return TimeOfDayFrom(t), nil
}

// String renders the "15:04" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// MarshalJSON encodes the time as a quoted "15:04" string.
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// UnmarshalJSON decodes a quoted "15:04" string.
func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("clock: invalid time-of-day JSON %s", s)
	}
	parsed, err := ParseTimeOfDay(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
