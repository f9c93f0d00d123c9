package timeutil

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

var eastern = Zone(-4 * 3600)

func TestZone_Name(t *testing.T) {
	assert.Equal(t, "UTC-04:00", eastern.String())
	assert.Equal(t, "UTC+05:30", Zone(5*3600+30*60).String())
	assert.Equal(t, time.UTC, Zone(0))
}

func TestFromUnix_KeepsInstantAndOffset(t *testing.T) {
	ts := FromUnix(1717264800, -4*3600) // 2024-06-01 18:00 UTC
	assert.Equal(t, int64(1717264800), ToUnix(ts))
	assert.Equal(t, 14, ts.Hour())
	assert.Equal(t, int64(-4*3600), OffsetSeconds(ts))

	ms := FromUnixMilli(1717264800000, -4*3600*1000)
	assert.True(t, ms.Equal(ts))
	assert.Equal(t, 14, ms.Hour())
}

func TestRollBackWeekend(t *testing.T) {
	fri := time.Date(2024, 5, 31, 16, 0, 0, 0, eastern)
	sat := time.Date(2024, 6, 1, 16, 0, 0, 0, eastern)
	sun := time.Date(2024, 6, 2, 16, 0, 0, 0, eastern)
	mon := time.Date(2024, 6, 3, 16, 0, 0, 0, eastern)

	assert.True(t, RollBackWeekend(sat).Equal(fri))
	assert.True(t, RollBackWeekend(sun).Equal(fri))
	assert.True(t, RollBackWeekend(mon).Equal(mon))
	assert.True(t, PreviousWeekday(mon).Equal(fri))
	assert.True(t, IsWeekend(sat))
	assert.False(t, IsWeekend(fri))
}

func TestSessionClose(t *testing.T) {
	wed := time.Date(2024, 6, 5, 11, 15, 0, 0, eastern)
	assert.Equal(t, time.Date(2024, 6, 5, 16, 0, 0, 0, eastern), SessionClose(wed))

	sat := time.Date(2024, 6, 1, 14, 0, 0, 0, eastern)
	assert.Equal(t, time.Date(2024, 5, 31, 16, 0, 0, 0, eastern), SessionClose(sat))

	assert.Equal(t, time.Date(2024, 6, 5, 9, 30, 0, 0, eastern), SessionOpen(wed))
}

func TestTimeOfDay(t *testing.T) {
	ts := time.Date(2024, 6, 5, 9, 45, 30, 0, eastern)
	assert.Equal(t, 9*time.Hour+45*time.Minute+30*time.Second, TimeOfDay(ts))
	assert.Equal(t, time.Date(2024, 6, 5, 16, 0, 0, 0, eastern), AtTimeOfDay(ts, MarketClose))
}

func TestTradingDay(t *testing.T) {
	assert.Equal(t, "2024-06-05", TradingDay(time.Date(2024, 6, 5, 23, 59, 0, 0, eastern)))
	assert.Equal(t, "2024-05-31", TradingDay(time.Date(2024, 6, 2, 10, 0, 0, 0, eastern)))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "1,234.57", FormatPrice(null.FloatFrom(1234.567)))
	assert.Equal(t, "0.50", FormatPrice(null.FloatFrom(0.5)))
	assert.Equal(t, Missing, FormatPrice(null.Float{}))
}

func TestFormatVolume(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{999, "999"},
		{12345, "12,345"},
		{1_500_000, "1.500M"},
		{25_000_000, "25.00M"},
		{250_000_000, "250.0M"},
		{2_500_000_000, "2.500B"},
		{25_000_000_000, "25.00B"},
		{250_000_000_000, "250.0B"},
		{2_500_000_000_000, "2.500T"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatVolume(null.IntFrom(tt.in)), "volume %d", tt.in)
	}
	assert.Equal(t, Missing, FormatVolume(null.Int{}))
}

func TestFormatChange(t *testing.T) {
	assert.Equal(t, "+1.25", FormatChange(1.2499999))
	assert.Equal(t, "-0.40", FormatChange(-0.4))
	assert.Equal(t, "+0.00", FormatChange(0))
	assert.Equal(t, "+1.52%", FormatPercent(1.521))
}

func TestFormatTick(t *testing.T) {
	ts := time.Date(2024, 3, 7, 13, 5, 0, 0, eastern)
	assert.Equal(t, "1:05 PM", FormatTick(ts, Hour))
	assert.Equal(t, "Mar 7", FormatTick(ts, Daily))
	assert.Equal(t, "Mar", FormatTick(ts, Monthly))
	assert.Equal(t, "2024", FormatTick(ts, Yearly))
}
