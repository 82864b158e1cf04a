package recurring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextDueDateSteps(t *testing.T) {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		frequency Frequency
		want      time.Time
	}{
		{FrequencyMonthly, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyBimonthly, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyQuarterly, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencySemiannual, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyAnnual, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, NextDueDate(base, tc.frequency), string(tc.frequency))
	}
}

func TestNextDueDateNormalizesShortMonths(t *testing.T) {
	// January 31 plus one month lands on March 2 in a leap year; Go's
	// AddDate normalization is the accepted behavior.
	got := NextDueDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), FrequencyMonthly)
	require.Equal(t, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestTemplateDue(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	require.True(t, Template{IsActive: true, NextDueDate: now}.Due(now))
	require.False(t, Template{IsActive: false, NextDueDate: now}.Due(now))
	require.False(t, Template{IsActive: true, NextDueDate: now.AddDate(0, 1, 0)}.Due(now))
	require.False(t, Template{IsActive: true, NextDueDate: now, EndDate: &end}.Due(now))
}
