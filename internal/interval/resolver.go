// Package interval maps a user-facing chart range onto the concrete window
// and the finest sampling interval upstream will serve for it.
package interval

import (
	"fmt"
	"time"

	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

const day = timeutil.Day

// Lookback thresholds for IdealInterval, measured from now back to the
// window start. Upstream stops serving an interval past its threshold.
var thresholds = []struct {
	max      time.Duration
	interval models.TimeInterval
}{
	{7 * day, models.IntervalTwoMinutes},
	{30 * day, models.IntervalFiveMinutes},
	{60 * day, models.IntervalThirtyMinutes},
	{366 * day, models.IntervalOneHour},
	{3650 * day, models.IntervalOneDay},
	{8767 * day, models.IntervalFiveDays},
	{11689 * day, models.IntervalOneWeek},
	{46756 * day, models.IntervalOneMonth},
}

// Window is a resolved chart request.
type Window struct {
	Start    time.Time
	End      time.Time
	Interval models.TimeInterval
}

// IdealInterval picks the finest interval legal for a window starting at
// start. A window no longer than one day always gets one-minute bars.
func IdealInterval(start, end, now time.Time) models.TimeInterval {
	if end.Sub(start) <= day {
		return models.IntervalOneMinute
	}
	ago := now.Sub(start)
	for _, th := range thresholds {
		if ago <= th.max {
			return th.interval
		}
	}
	return models.IntervalThreeMonths
}

// Resolve computes the default window for range r of quote q as seen at
// now. All returned times carry the exchange's offset.
//
// Sessions are assumed to run MarketOpen..MarketClose on weekdays. The end
// is the most recent completed close, except for the one-day range which
// follows the session in progress.
func Resolve(q models.Quote, r models.TimeRange, now time.Time) (Window, error) {
	if !r.Valid() {
		return Window{}, fmt.Errorf("%w: time range %d", models.ErrInvalidArgument, int(r))
	}

	now = now.In(q.Location())
	firstTrade := q.FirstTradeDate()
	sessionClose := timeutil.SessionClose(now)

	var start, end time.Time
	if r == models.RangeOneDay {
		start = timeutil.SessionOpen(sessionClose)
		end = sessionClose
		if !now.After(start) {
			prev := timeutil.PreviousWeekday(start)
			start = timeutil.SessionOpen(prev)
			end = timeutil.AtTimeOfDay(prev, timeutil.MarketClose)
		} else if now.Before(sessionClose) {
			end = now
		}
	} else {
		end = sessionClose
		if now.Before(sessionClose) {
			end = timeutil.AtTimeOfDay(timeutil.PreviousWeekday(sessionClose), timeutil.MarketClose)
		}
		start = rangeStart(r, end, firstTrade)
	}

	if start.Before(firstTrade) {
		start = firstTrade
	}
	if !start.Before(end) {
		return Window{}, fmt.Errorf("%w: no trading data for %s before %s (first trade %s)",
			models.ErrInvalidArgument, r, end.Format(time.RFC3339), firstTrade.Format(time.RFC3339))
	}

	return Window{Start: start, End: end, Interval: IdealInterval(start, end, now)}, nil
}

func rangeStart(r models.TimeRange, end, firstTrade time.Time) time.Time {
	switch r {
	case models.RangeFiveDay:
		// five sessions back is one calendar week
		return end.AddDate(0, 0, -7)
	case models.RangeOneMonth:
		return end.AddDate(0, -1, 0)
	case models.RangeThreeMonth:
		return end.AddDate(0, -3, 0)
	case models.RangeSixMonth:
		return end.AddDate(0, -6, 0)
	case models.RangeOneYear:
		return end.AddDate(-1, 0, 0)
	case models.RangeTwoYear:
		return end.AddDate(-2, 0, 0)
	case models.RangeFiveYear:
		return end.AddDate(-5, 0, 0)
	case models.RangeTenYear:
		return end.AddDate(-10, 0, 0)
	case models.RangeYearToDate:
		return time.Date(end.Year(), time.January, 1, 0, 0, 0, 0, end.Location()).Add(timeutil.MarketOpen)
	}
	return firstTrade
}
