package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func confirmedBooking(date, start string, hours float64) Booking {
	return Booking{
		ScheduledDate: date,
		ScheduledTime: start,
		DurationHours: hours,
		Status:        StatusConfirmed,
	}
}

func TestIsSlotBusy_Overlap(t *testing.T) {
	tests := []struct {
		name     string
		existing []Booking
		slot     Slot
		busy     bool
	}{
		{
			name:     "overlapping confirmed booking is busy",
			existing: []Booking{confirmedBooking("2024-06-15", "10:00", 1)},
			slot:     Slot{Date: "2024-06-15", StartTime: "10:30", DurationHours: 1},
			busy:     true,
		},
		{
			name:     "identical interval is busy",
			existing: []Booking{confirmedBooking("2024-06-15", "10:00", 1)},
			slot:     Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1},
			busy:     true,
		},
		{
			name:     "candidate fully inside existing is busy",
			existing: []Booking{confirmedBooking("2024-06-15", "09:00", 4)},
			slot:     Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1},
			busy:     true,
		},
		{
			name:     "existing fully inside candidate is busy",
			existing: []Booking{confirmedBooking("2024-06-15", "10:00", 0.5)},
			slot:     Slot{Date: "2024-06-15", StartTime: "09:00", DurationHours: 4},
			busy:     true,
		},
		{
			name:     "back-to-back after existing is not busy",
			existing: []Booking{confirmedBooking("2024-06-15", "09:00", 1)},
			slot:     Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1},
			busy:     false,
		},
		{
			name:     "back-to-back before existing is not busy",
			existing: []Booking{confirmedBooking("2024-06-15", "11:00", 1)},
			slot:     Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1},
			busy:     false,
		},
		{
			name:     "fractional duration overlap is busy",
			existing: []Booking{confirmedBooking("2024-06-15", "10:00", 1.5)},
			slot:     Slot{Date: "2024-06-15", StartTime: "11:15", DurationHours: 1},
			busy:     true,
		},
		{
			name:     "no bookings is not busy",
			existing: nil,
			slot:     Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1},
			busy:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			busy, err := IsSlotBusy(tt.existing, tt.slot)
			require.NoError(t, err)
			assert.Equal(t, tt.busy, busy)
		})
	}
}

func TestIsSlotBusy_StatusFilter(t *testing.T) {
	slot := Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1}

	tests := []struct {
		status BookingStatus
		busy   bool
	}{
		{StatusPending, false},
		{StatusConfirmed, true},
		{StatusInProgress, true},
		{StatusCompleted, false},
		{StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			b := confirmedBooking("2024-06-15", "10:00", 1)
			b.Status = tt.status

			busy, err := IsSlotBusy([]Booking{b}, slot)
			require.NoError(t, err)
			assert.Equal(t, tt.busy, busy)
		})
	}
}

func TestIsSlotBusy_DateIsolation(t *testing.T) {
	existing := []Booking{confirmedBooking("2024-01-01", "10:00", 1)}

	busy, err := IsSlotBusy(existing, Slot{Date: "2024-01-02", StartTime: "10:00", DurationHours: 1})
	require.NoError(t, err)
	assert.False(t, busy, "bookings on another date must never conflict")
}

func TestIsSlotBusy_SkipsMalformedRecords(t *testing.T) {
	slot := Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 1}

	t.Run("malformed records alone never conflict", func(t *testing.T) {
		existing := []Booking{
			confirmedBooking("2024-06-15", "", 1),
			confirmedBooking("2024-06-15", "not-a-time", 1),
			confirmedBooking("2024-06-15", "10:00", 0),
			confirmedBooking("2024-06-15", "10:00", -2),
		}

		busy, err := IsSlotBusy(existing, slot)
		require.NoError(t, err)
		assert.False(t, busy)
	})

	t.Run("one bad record does not hide a real conflict", func(t *testing.T) {
		existing := []Booking{
			confirmedBooking("2024-06-15", "garbage", 1),
			confirmedBooking("2024-06-15", "10:30", 1),
		}

		busy, err := IsSlotBusy(existing, slot)
		require.NoError(t, err)
		assert.True(t, busy)
	})
}

func TestIsSlotBusy_InvalidCandidate(t *testing.T) {
	existing := []Booking{confirmedBooking("2024-06-15", "10:00", 1)}

	t.Run("zero duration", func(t *testing.T) {
		_, err := IsSlotBusy(existing, Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: 0})
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("negative duration", func(t *testing.T) {
		_, err := IsSlotBusy(existing, Slot{Date: "2024-06-15", StartTime: "10:00", DurationHours: -1})
		assert.ErrorIs(t, err, ErrInvalidDuration)
	})

	t.Run("bad start time", func(t *testing.T) {
		_, err := IsSlotBusy(existing, Slot{Date: "2024-06-15", StartTime: "25:99", DurationHours: 1})
		assert.ErrorIs(t, err, ErrInvalidStartTime)
	})
}

func TestIsSlotBusy_Idempotent(t *testing.T) {
	existing := []Booking{
		confirmedBooking("2024-06-15", "09:00", 1),
		confirmedBooking("2024-06-15", "14:00", 2),
	}
	slot := Slot{Date: "2024-06-15", StartTime: "14:30", DurationHours: 1}

	first, err := IsSlotBusy(existing, slot)
	require.NoError(t, err)
	second, err := IsSlotBusy(existing, slot)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first)
}
