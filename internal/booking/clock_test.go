package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	got, err := parseClock("10:30")
	require.NoError(t, err)
	assert.Equal(t, referenceDay.Add(10*time.Hour+30*time.Minute), got)

	for _, bad := range []string{"", "10", "10:3", "24:00", "aa:bb"} {
		_, err := parseClock(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDateOf(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 03:30 UTC on the 15th is still the 14th in New York.
	instant := time.Date(2024, 6, 15, 3, 30, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), dateOf(instant, time.UTC))
	assert.Equal(t, time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC), dateOf(instant, ny))
}

func TestHoursToDuration(t *testing.T) {
	assert.Equal(t, 90*time.Minute, hoursToDuration(1.5))
	assert.Equal(t, 30*time.Minute, hoursToDuration(0.5))
}
