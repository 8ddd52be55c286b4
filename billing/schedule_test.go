package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawsteps/walkops/billing"
)

func TestParseWalkDate(t *testing.T) {
	d, err := billing.ParseWalkDate("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC), d)

	_, err = billing.ParseWalkDate("15/06/2025")
	assert.ErrorIs(t, err, billing.ErrInvalidDate)
}

func TestWalkEnd_NamedSlotsAndClockTimes(t *testing.T) {
	tests := []struct {
		timeField string
		duration  int
		wantHour  int
		wantMin   int
	}{
		{"morning", 30, 9, 30},
		{"midday", 20, 12, 20},
		{"afternoon", 60, 16, 0},
		{"evening", 45, 18, 45},
		{"14:30:00", 30, 15, 0},
		{"14:30", 30, 15, 0},
		{"gibberish", 30, 9, 30}, // falls back to morning
	}
	for _, tt := range tests {
		end, err := billing.WalkEnd(billing.Walk{
			Date: "2025-06-15", Time: tt.timeField, Duration: tt.duration,
		})
		require.NoError(t, err, tt.timeField)
		assert.Equal(t, tt.wantHour, end.Hour(), "time %q", tt.timeField)
		assert.Equal(t, tt.wantMin, end.Minute(), "time %q", tt.timeField)
	}
}

func TestWalkEnd_OvernightEndsTwentyFourHoursLater(t *testing.T) {
	end, err := billing.WalkEnd(billing.Walk{
		Date: "2025-06-15", Time: "evening", Duration: billing.OvernightDuration,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.June, 16, 18, 0, 0, 0, time.UTC), end)
}

func TestWalkEnd_BadDate(t *testing.T) {
	_, err := billing.WalkEnd(billing.Walk{Date: "soon", Duration: 30})
	assert.ErrorIs(t, err, billing.ErrInvalidDate)
}
