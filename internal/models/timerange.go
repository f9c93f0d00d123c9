package models

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidArgument marks a request rejected before any network call.
var ErrInvalidArgument = errors.New("invalid argument")

// TimeRange is a user-facing chart window, ordered by increasing span.
type TimeRange int

const (
	RangeOneDay TimeRange = iota
	RangeFiveDay
	RangeOneMonth
	RangeThreeMonth
	RangeSixMonth
	RangeOneYear
	RangeTwoYear
	RangeFiveYear
	RangeTenYear
	RangeYearToDate
	RangeMax
	timeRangeCount
)

var timeRangeTokens = [...]string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// The token table must have exactly one entry per TimeRange.
var (
	_ [len(timeRangeTokens) - int(timeRangeCount)]struct{}
	_ [int(timeRangeCount) - len(timeRangeTokens)]struct{}
)

func (r TimeRange) Valid() bool {
	return r >= RangeOneDay && r < timeRangeCount
}

// String returns the upstream query token ("1d", "ytd", ...).
func (r TimeRange) String() string {
	if !r.Valid() {
		return fmt.Sprintf("TimeRange(%d)", int(r))
	}
	return timeRangeTokens[r]
}

func ParseTimeRange(token string) (TimeRange, error) {
	for i, t := range timeRangeTokens {
		if t == token {
			return TimeRange(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown time range %q", ErrInvalidArgument, token)
}

func (r TimeRange) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: time range %d", ErrInvalidArgument, int(r))
	}
	return []byte(r.String()), nil
}

func (r *TimeRange) UnmarshalText(b []byte) error {
	v, err := ParseTimeRange(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// AllTimeRanges lists every range in span order.
func AllTimeRanges() []TimeRange {
	out := make([]TimeRange, 0, timeRangeCount)
	for r := RangeOneDay; r < timeRangeCount; r++ {
		out = append(out, r)
	}
	return out
}

// TimeInterval is an upstream sampling interval, ordered by increasing granularity.
type TimeInterval int

const (
	IntervalOneMinute TimeInterval = iota
	IntervalTwoMinutes
	IntervalFiveMinutes
	IntervalFifteenMinutes
	IntervalThirtyMinutes
	IntervalSixtyMinutes
	IntervalNinetyMinutes
	IntervalOneHour
	IntervalOneDay
	IntervalFiveDays
	IntervalOneWeek
	IntervalOneMonth
	IntervalThreeMonths
	timeIntervalCount
)

var timeIntervalTokens = [...]string{"1m", "2m", "5m", "15m", "30m", "60m", "90m", "1h", "1d", "5d", "1wk", "1mo", "3mo"}

const day = 24 * time.Hour

// Nominal bar width per interval. Months use the average Gregorian month.
var timeIntervalDurations = [...]time.Duration{
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
	15 * time.Minute,
	30 * time.Minute,
	60 * time.Minute,
	90 * time.Minute,
	time.Hour,
	day,
	5 * day,
	7 * day,
	time.Duration(365.25 / 12 * float64(day)),
	time.Duration(365.25 / 4 * float64(day)),
}

var (
	_ [len(timeIntervalTokens) - int(timeIntervalCount)]struct{}
	_ [int(timeIntervalCount) - len(timeIntervalTokens)]struct{}
	_ [len(timeIntervalDurations) - int(timeIntervalCount)]struct{}
	_ [int(timeIntervalCount) - len(timeIntervalDurations)]struct{}
)

func (iv TimeInterval) Valid() bool {
	return iv >= IntervalOneMinute && iv < timeIntervalCount
}

func (iv TimeInterval) String() string {
	if !iv.Valid() {
		return fmt.Sprintf("TimeInterval(%d)", int(iv))
	}
	return timeIntervalTokens[iv]
}

// Duration is the nominal width of one bar.
func (iv TimeInterval) Duration() time.Duration {
	if !iv.Valid() {
		return 0
	}
	return timeIntervalDurations[iv]
}

// Intraday reports whether bars are narrower than one trading day.
func (iv TimeInterval) Intraday() bool {
	return iv.Valid() && iv < IntervalOneDay
}

func ParseTimeInterval(token string) (TimeInterval, error) {
	for i, t := range timeIntervalTokens {
		if t == token {
			return TimeInterval(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown time interval %q", ErrInvalidArgument, token)
}

func (iv TimeInterval) MarshalText() ([]byte, error) {
	if !iv.Valid() {
		return nil, fmt.Errorf("%w: time interval %d", ErrInvalidArgument, int(iv))
	}
	return []byte(iv.String()), nil
}

func (iv *TimeInterval) UnmarshalText(b []byte) error {
	v, err := ParseTimeInterval(string(b))
	if err != nil {
		return err
	}
	*iv = v
	return nil
}

// Indicator selects the single series a spark carries.
type Indicator int

const (
	IndicatorOpen Indicator = iota
	IndicatorClose
	IndicatorHigh
	IndicatorLow
	indicatorCount
)

var indicatorTokens = [...]string{"open", "close", "high", "low"}

var (
	_ [len(indicatorTokens) - int(indicatorCount)]struct{}
	_ [int(indicatorCount) - len(indicatorTokens)]struct{}
)

func (ind Indicator) Valid() bool {
	return ind >= IndicatorOpen && ind < indicatorCount
}

func (ind Indicator) String() string {
	if !ind.Valid() {
		return fmt.Sprintf("Indicator(%d)", int(ind))
	}
	return indicatorTokens[ind]
}
