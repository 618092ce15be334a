package booking

import (
	"time"
)

// All time-of-day arithmetic is anchored to a single arbitrary reference day.
// Only the clock value matters: callers establish the date match before any
// interval math, so two bookings compared here always share a calendar date.
// No timezone conversion happens anywhere in this package; values are naive
// local times, which is a deliberate simplification carried over from the
// booking store.
var referenceDay = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	clockLayout = "15:04"
	dateLayout  = "2006-01-02"
)

// parseClock turns an "HH:MM" string into an instant on the reference day.
func parseClock(hhmm string) (time.Time, error) {
	t, err := time.Parse(clockLayout, hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return referenceDay.Add(
		time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute,
	), nil
}

// parseDate parses a naive "YYYY-MM-DD" calendar date at midnight UTC.
func parseDate(yyyymmdd string) (time.Time, error) {
	return time.Parse(dateLayout, yyyymmdd)
}

// dateOf truncates an instant to its calendar date in the given location.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// hoursToDuration converts a fractional hour count to a time.Duration.
func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
