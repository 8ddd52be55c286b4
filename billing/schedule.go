/*
schedule.go - Walk date/time semantics

PURPOSE:
  One place for every calendar rule the engine relies on: parsing the
  YYYY-MM-DD walk date, resolving named time slots, computing a walk's
  end instant, and the "calendar days in the past" test the outstanding
  sweep uses.

TIME SLOTS:
  Bookings carry either a clock time (HH:MM:SS or HH:MM) or a named
  slot. Slots resolve to fixed start times:
    morning   09:00
    midday    12:00
    afternoon 15:00
    evening   18:00
  An unparsable time degrades to the morning slot rather than failing
  the walk: time-of-day only shifts when a sweep fires, never billing.

CALENDAR ARITHMETIC:
  Recurrence and the day-in-the-past test work on calendar components
  (AddDate / date-only comparison), never elapsed durations, so results
  do not drift across daylight-saving transitions.
*/
package billing

import (
	"fmt"
	"time"
)

const walkDateLayout = "2006-01-02"

// slotStartHours maps named booking slots to their start hour.
var slotStartHours = map[string]int{
	"morning":   9,
	"midday":    12,
	"afternoon": 15,
	"evening":   18,
}

// ParseWalkDate parses a YYYY-MM-DD walk date as UTC midnight.
func ParseWalkDate(s string) (time.Time, error) {
	t, err := time.Parse(walkDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatWalkDate renders a date in the walk date layout.
func FormatWalkDate(t time.Time) string {
	return t.Format(walkDateLayout)
}

// walkStart resolves a walk's start instant from its date and time
// fields. Unparsable times fall back to the morning slot.
func walkStart(date time.Time, timeField string) time.Time {
	if h, ok := slotStartHours[timeField]; ok {
		return date.Add(time.Duration(h) * time.Hour)
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, timeField); err == nil {
			return date.Add(time.Duration(t.Hour())*time.Hour +
				time.Duration(t.Minute())*time.Minute +
				time.Duration(t.Second())*time.Second)
		}
	}
	return date.Add(time.Duration(slotStartHours["morning"]) * time.Hour)
}

// WalkEnd computes when a walk finishes: start plus duration, or start
// plus 24 hours for overnight stays.
func WalkEnd(w Walk) (time.Time, error) {
	date, err := ParseWalkDate(w.Date)
	if err != nil {
		return time.Time{}, err
	}
	start := walkStart(date, w.Time)
	if w.Duration == OvernightDuration {
		return start.Add(24 * time.Hour), nil
	}
	return start.Add(time.Duration(w.Duration) * time.Minute), nil
}

// dateOnly truncates t to its calendar date in UTC.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysInPast returns how many whole calendar days the walk date lies
// before now. Zero or negative means today or in the future.
func daysInPast(walkDate time.Time, now time.Time) int {
	return int(dateOnly(now).Sub(dateOnly(walkDate)).Hours() / 24)
}

// weeksAfter advances a base date by n calendar weeks using date
// components, so dates stay aligned across DST boundaries.
func weeksAfter(base time.Time, n int) time.Time {
	return base.AddDate(0, 0, 7*n)
}
