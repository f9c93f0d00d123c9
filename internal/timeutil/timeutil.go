package timeutil

import (
	"fmt"
	"time"
)

// Nominal regular session for US equities, in exchange-local wall clock.
// Charts trust the payload's trading period when one is present; these
// constants only anchor the resolver's default windows.
const (
	MarketOpen  = 9*time.Hour + 30*time.Minute
	MarketClose = 16 * time.Hour
)

const Day = 24 * time.Hour

// Zone returns a fixed zone for an exchange gmt offset in seconds.
func Zone(offsetSeconds int64) *time.Location {
	if offsetSeconds == 0 {
		return time.UTC
	}
	sign := '+'
	off := offsetSeconds
	if off < 0 {
		sign = '-'
		off = -off
	}
	name := fmt.Sprintf("UTC%c%02d:%02d", sign, off/3600, (off%3600)/60)
	return time.FixedZone(name, int(offsetSeconds))
}

// FromUnix converts unix seconds to an instant in the exchange's offset.
func FromUnix(sec, offsetSeconds int64) time.Time {
	return time.Unix(sec, 0).In(Zone(offsetSeconds))
}

// FromUnixMilli is FromUnix for the quote payload's millisecond fields.
func FromUnixMilli(ms, offsetMs int64) time.Time {
	return time.UnixMilli(ms).In(Zone(offsetMs / 1000))
}

func ToUnix(t time.Time) int64 {
	return t.Unix()
}

// OffsetSeconds is the zone offset carried by t.
func OffsetSeconds(t time.Time) int64 {
	_, off := t.Zone()
	return int64(off)
}

func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// RollBackWeekend moves a Saturday or Sunday back to the preceding Friday,
// keeping the wall-clock time. Weekdays are returned unchanged.
func RollBackWeekend(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, -2)
	}
	return t
}

// PreviousWeekday is the closest weekday strictly before t's date.
func PreviousWeekday(t time.Time) time.Time {
	return RollBackWeekend(t.AddDate(0, 0, -1))
}

// StartOfDay is local midnight of t's date.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// TimeOfDay is the wall-clock offset of t from its local midnight.
func TimeOfDay(t time.Time) time.Duration {
	return t.Sub(StartOfDay(t))
}

// AtTimeOfDay returns t's date at the given wall-clock offset.
func AtTimeOfDay(t time.Time, tod time.Duration) time.Time {
	return StartOfDay(t).Add(tod)
}

// SessionClose is today's nominal close, rolled back to Friday on weekends.
func SessionClose(now time.Time) time.Time {
	return RollBackWeekend(AtTimeOfDay(now, MarketClose))
}

// SessionOpen is the nominal open on day's date.
func SessionOpen(day time.Time) time.Time {
	return AtTimeOfDay(day, MarketOpen)
}

// TradingDay returns the exchange-local trading day (YYYY-MM-DD) for ts.
// Weekend instants belong to the preceding Friday.
func TradingDay(ts time.Time) string {
	return RollBackWeekend(ts).Format(time.DateOnly)
}
