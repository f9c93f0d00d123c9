package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kjannette/stocks-backend/internal/models"
)

func TestIsValidForRange(t *testing.T) {
	tests := []struct {
		r    models.TimeRange
		iv   models.TimeInterval
		want bool
	}{
		{models.RangeOneDay, models.IntervalOneMinute, true},
		{models.RangeOneDay, models.IntervalNinetyMinutes, true},
		{models.RangeOneDay, models.IntervalOneDay, false},
		{models.RangeFiveDay, models.IntervalOneDay, true},
		{models.RangeFiveDay, models.IntervalFiveDays, false},
		{models.RangeOneMonth, models.IntervalOneWeek, true},
		{models.RangeOneMonth, models.IntervalOneMonth, false},
		{models.RangeThreeMonth, models.IntervalOneMonth, true},
		{models.RangeThreeMonth, models.IntervalThreeMonths, false},
		{models.RangeOneYear, models.IntervalThreeMonths, true},
		{models.RangeMax, models.IntervalOneMinute, true},
		{models.TimeRange(-1), models.IntervalOneDay, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidForRange(tt.r, tt.iv), "%s/%s", tt.r, tt.iv)
	}
}

func TestIsValidForSpan(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, edt)

	assert.True(t, IsValidForSpan(models.IntervalOneMinute, now.Add(-7*day), now, now))
	assert.False(t, IsValidForSpan(models.IntervalOneMinute, now.Add(-7*day-time.Second), now, now))

	assert.True(t, IsValidForSpan(models.IntervalFiveMinutes, now.Add(-60*day), now.Add(-59*day), now))
	assert.False(t, IsValidForSpan(models.IntervalFiveMinutes, now.Add(-61*day), now.Add(-59*day), now))

	assert.True(t, IsValidForSpan(models.IntervalOneHour, now.Add(-700*day), now, now))
	assert.False(t, IsValidForSpan(models.IntervalSixtyMinutes, now.Add(-731*day), now, now))

	assert.True(t, IsValidForSpan(models.IntervalOneDay, now.Add(-20000*day), now, now))
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2024, 6, 5, 12, 0, 0, 0, edt)
	first := time.Date(2000, 1, 3, 9, 30, 0, 0, edt)

	assert.NoError(t, ValidateWindow(first, now.Add(-5*day), now, now, models.IntervalFiveMinutes))

	cases := []struct {
		name       string
		start, end time.Time
		iv         models.TimeInterval
	}{
		{"before first trade", first.Add(-day), now, models.IntervalOneDay},
		{"start after end", now.Add(-day), now.Add(-2 * day), models.IntervalOneDay},
		{"end in future", now.Add(-day), now.Add(time.Hour), models.IntervalOneDay},
		{"start not past", now, now, models.IntervalOneDay},
		{"1m over a month", now.Add(-30 * day), now, models.IntervalOneMinute},
		{"bad interval", now.Add(-day), now, models.TimeInterval(99)},
	}
	for _, c := range cases {
		err := ValidateWindow(first, c.start, c.end, now, c.iv)
		assert.ErrorIs(t, err, models.ErrInvalidArgument, c.name)
	}
}
