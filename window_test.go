package pricemcp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYearWindow(t *testing.T) {
	loc := time.FixedZone("SGT", 8*60*60)
	tests := []struct {
		name      string
		today     time.Time
		policy    LeapDayPolicy
		wantStart string
		wantEnd   string
	}{
		{"ordinary day", time.Date(2025, 9, 7, 15, 4, 5, 0, loc), LeapDayClamp, "2024-09-07", "2025-09-07"},
		{"year start", time.Date(2025, 1, 1, 0, 0, 0, 0, loc), LeapDayClamp, "2024-01-01", "2025-01-01"},
		{"day before leap day in previous year", time.Date(2025, 2, 28, 23, 59, 0, 0, loc), LeapDayClamp, "2024-02-28", "2025-02-28"},
		{"march first after leap year", time.Date(2025, 3, 1, 0, 0, 0, 0, loc), LeapDayError, "2024-03-01", "2025-03-01"},
		{"leap day clamp", time.Date(2024, 2, 29, 12, 0, 0, 0, loc), LeapDayClamp, "2023-02-28", "2024-02-29"},
		{"leap day default policy", time.Date(2024, 2, 29, 12, 0, 0, 0, loc), "", "2023-02-28", "2024-02-29"},
		{"leap day rollover", time.Date(2024, 2, 29, 12, 0, 0, 0, loc), LeapDayRollover, "2023-03-01", "2024-02-29"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			window, err := YearWindow(tt.today, tt.policy)
			require.NoError(t, err)
			start, end := window.Format(DefaultDateFormat)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.True(t, window.Start.Before(window.End))
			assert.Equal(t, loc, window.Start.Location())
		})
	}
}

func TestYearWindow_LeapDayError(t *testing.T) {
	_, err := YearWindow(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), LeapDayError)
	assert.ErrorIs(t, err, ErrLeapDayAnchor)
}

func TestYearWindow_UnknownPolicy(t *testing.T) {
	_, err := YearWindow(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), "skip")
	assert.Error(t, err)

	// 非闰日不看策略
	_, err = YearWindow(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "skip")
	assert.NoError(t, err)
}

func TestDateWindow_Format(t *testing.T) {
	window, err := YearWindow(time.Date(2025, 9, 7, 0, 0, 0, 0, time.UTC), LeapDayClamp)
	require.NoError(t, err)
	start, end := window.Format("20060102")
	assert.Equal(t, "20240907", start)
	assert.Equal(t, "20250907", end)
}

func TestLeapDayPolicy_Validate(t *testing.T) {
	for _, p := range []LeapDayPolicy{LeapDayClamp, LeapDayRollover, LeapDayError} {
		assert.NoError(t, p.Validate())
	}
	assert.Error(t, LeapDayPolicy("").Validate())
	assert.Error(t, LeapDayPolicy("Clamp").Validate())
}
