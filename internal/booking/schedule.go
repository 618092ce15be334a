package booking

import (
	"errors"
	"time"
)

var (
	// ErrInvalidDuration is returned when a candidate slot carries a
	// non-positive duration. That is a caller bug, not bad store data, so it
	// surfaces immediately instead of degrading.
	ErrInvalidDuration = errors.New("slot duration must be positive")

	// ErrInvalidStartTime is returned when a candidate start is not HH:MM.
	ErrInvalidStartTime = errors.New("slot start time must be HH:MM")
)

// interval is a half-open [start, end) span on the reference day.
type interval struct {
	start time.Time
	end   time.Time
}

// overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not count: back-to-back bookings are allowed.
func (iv interval) overlaps(other interval) bool {
	return iv.start.Before(other.end) && other.start.Before(iv.end)
}

// occupiedInterval computes the span a booking occupies on the reference
// day. The second return is false when the record is malformed (unparseable
// time or non-positive duration); such records come from an external store
// and are skipped rather than allowed to abort a whole scan.
func occupiedInterval(b Booking) (interval, bool) {
	if b.DurationHours <= 0 {
		return interval{}, false
	}
	start, err := parseClock(b.ScheduledTime)
	if err != nil {
		return interval{}, false
	}
	return interval{start: start, end: start.Add(hoursToDuration(b.DurationHours))}, true
}

// IsSlotBusy decides whether the candidate slot conflicts with any existing
// booking for the same provider. The caller passes the provider's bookings
// unfiltered; only bookings on the candidate's date whose status occupies
// time (confirmed or in-progress) are considered. Intervals are half-open,
// so a booking ending exactly when the candidate starts is not a conflict.
func IsSlotBusy(existing []Booking, candidate Slot) (bool, error) {
	if candidate.DurationHours <= 0 {
		return false, ErrInvalidDuration
	}

	start, err := parseClock(candidate.StartTime)
	if err != nil {
		return false, ErrInvalidStartTime
	}
	want := interval{start: start, end: start.Add(hoursToDuration(candidate.DurationHours))}

	for _, b := range existing {
		if b.ScheduledDate != candidate.Date || !b.Status.Occupies() {
			continue
		}
		iv, ok := occupiedInterval(b)
		if !ok {
			continue
		}
		if iv.overlaps(want) {
			return true, nil
		}
	}

	return false, nil
}
