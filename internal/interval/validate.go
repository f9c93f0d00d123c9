package interval

import (
	"fmt"
	"time"

	"github.com/kjannette/stocks-backend/internal/models"
)

// Upstream retention for explicitly requested intraday windows.
const (
	MaxOneMinuteSpan    = 7 * day
	MaxIntradayLookback = 60 * day
	MaxHourlyLookback   = 730 * day
)

// IsValidForSpan reports whether upstream serves iv for a window
// [start, end] requested at now.
func IsValidForSpan(iv models.TimeInterval, start, end, now time.Time) bool {
	switch iv {
	case models.IntervalOneMinute:
		return end.Sub(start) <= MaxOneMinuteSpan
	case models.IntervalTwoMinutes, models.IntervalFiveMinutes, models.IntervalFifteenMinutes,
		models.IntervalThirtyMinutes, models.IntervalNinetyMinutes:
		return now.Sub(start) <= MaxIntradayLookback
	case models.IntervalSixtyMinutes, models.IntervalOneHour:
		return now.Sub(start) <= MaxHourlyLookback
	}
	return iv.Valid()
}

// IsValidForRange reports whether a spark over r may be sampled at iv: the
// interval must be narrower than the range for ranges up to three months.
func IsValidForRange(r models.TimeRange, iv models.TimeInterval) bool {
	if !r.Valid() || !iv.Valid() {
		return false
	}
	switch r {
	case models.RangeOneDay:
		return iv < models.IntervalOneDay
	case models.RangeFiveDay:
		return iv < models.IntervalFiveDays
	case models.RangeOneMonth:
		return iv < models.IntervalOneMonth
	case models.RangeThreeMonth:
		return iv < models.IntervalThreeMonths
	}
	return true
}

// ValidateWindow checks an explicit chart request before it goes out.
func ValidateWindow(firstTrade, start, end, now time.Time, iv models.TimeInterval) error {
	if !iv.Valid() {
		return fmt.Errorf("%w: time interval %d", models.ErrInvalidArgument, int(iv))
	}
	if start.Before(firstTrade) {
		return fmt.Errorf("%w: start %s precedes first trade %s", models.ErrInvalidArgument,
			start.Format(time.RFC3339), firstTrade.Format(time.RFC3339))
	}
	if !start.Before(now) {
		return fmt.Errorf("%w: start %s is not in the past", models.ErrInvalidArgument, start.Format(time.RFC3339))
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start must precede end", models.ErrInvalidArgument)
	}
	if end.After(now) {
		return fmt.Errorf("%w: end %s is in the future", models.ErrInvalidArgument, end.Format(time.RFC3339))
	}
	if !IsValidForSpan(iv, start, end, now) {
		return fmt.Errorf("%w: interval %s not available for window starting %s",
			models.ErrInvalidArgument, iv, start.Format(time.RFC3339))
	}
	return nil
}
