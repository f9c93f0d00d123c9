package chart

import (
	"testing"
	"time"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

var edt = timeutil.Zone(-4 * 3600)

type bar struct {
	at             time.Time
	o, h, l, close null.Float
}

func full(at time.Time, v float64) bar {
	return bar{at, null.FloatFrom(v), null.FloatFrom(v + 1), null.FloatFrom(v - 1), null.FloatFrom(v + 0.5)}
}

func payload(day time.Time, granularity string, bars ...bar) models.Chart {
	open := timeutil.AtTimeOfDay(day, timeutil.MarketOpen)
	closeAt := timeutil.AtTimeOfDay(day, timeutil.MarketClose)
	c := models.Chart{
		Meta: models.ChartMeta{
			Symbol:          "TEST",
			GmtOffset:       -4 * 3600,
			DataGranularity: granularity,
			CurrentTradingPeriod: models.CurrentTradingPeriod{
				Regular: models.TradingPeriod{Start: open.Unix(), End: closeAt.Unix(), GmtOffset: -4 * 3600},
			},
		},
	}
	q := models.IndicatorQuote{}
	for _, b := range bars {
		c.Timestamp = append(c.Timestamp, b.at.Unix())
		q.Open = append(q.Open, b.o)
		q.High = append(q.High, b.h)
		q.Low = append(q.Low, b.l)
		q.Close = append(q.Close, b.close)
	}
	c.Indicators.Quote = []models.IndicatorQuote{q}
	return c
}

func assertContiguous(t *testing.T, pts []models.TradePoint) {
	t.Helper()
	for i, p := range pts {
		require.Equal(t, i, p.Index)
	}
}

func TestBuild_DropsNullBars(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	at := func(h, m int) time.Time { return time.Date(2024, 6, 5, h, m, 0, 0, edt) }
	c := payload(day, "1d",
		full(at(10, 0), 10),
		bar{at: at(10, 5)},
		full(at(10, 10), 12),
		bar{at: at(10, 15), close: null.FloatFrom(13)},
	)

	s := Build(c, models.RangeOneMonth, models.IntervalOneDay)
	require.Len(t, s.Points, 3)
	assertContiguous(t, s.Points)
	for _, p := range s.Points {
		assert.False(t, p.Empty())
	}
	assert.Equal(t, 13.0, s.Close.Float64)
}

func TestBuild_FiltersOutOfSessionIntraday(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	at := func(h, m int) time.Time { return time.Date(2024, 6, 5, h, m, 0, 0, edt) }
	bars := []bar{
		full(at(8, 0), 1),   // pre-market
		full(at(9, 25), 2),  // pre-market
		full(at(9, 30), 3),  // open
		full(at(12, 0), 4),  // midday
		full(at(15, 55), 5), // last regular bar
		full(at(16, 0), 6),  // close: excluded
		full(at(18, 30), 7), // post-market
	}

	intraday := Build(payload(day, "5m", bars...), models.RangeFiveDay, models.IntervalFiveMinutes)
	require.Len(t, intraday.Points, 3)
	assert.Equal(t, 9, intraday.Points[0].Time.Hour())
	assert.Equal(t, 30, intraday.Points[0].Time.Minute())
	assert.Equal(t, 15, intraday.Points[2].Time.Hour())
	assertContiguous(t, intraday.Points)

	daily := Build(payload(day, "1d", bars...), models.RangeOneYear, models.IntervalOneDay)
	assert.Len(t, daily.Points, len(bars))
	assertContiguous(t, daily.Points)
}

func TestBuild_Summary(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	at := func(h, m int) time.Time { return time.Date(2024, 6, 5, h, m, 0, 0, edt) }
	c := payload(day, "5m",
		bar{at: at(9, 30), close: null.FloatFrom(100)},
		bar{at: at(9, 35), o: null.FloatFrom(101), h: null.FloatFrom(110), l: null.FloatFrom(99), close: null.FloatFrom(105)},
		bar{at: at(9, 40), o: null.FloatFrom(105), h: null.FloatFrom(106), l: null.FloatFrom(90), close: null.FloatFrom(95)},
		bar{at: at(9, 45), o: null.FloatFrom(95)},
	)
	s := Build(c, models.RangeFiveDay, models.IntervalFiveMinutes)
	assert.Equal(t, 100.0, s.Open.Float64, "open falls back to the first close")
	assert.Equal(t, 110.0, s.High.Float64)
	assert.Equal(t, 90.0, s.Low.Float64)
	assert.Equal(t, 95.0, s.Close.Float64)
}

func TestBuild_OneDayPadsToClose(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	var bars []bar
	for tm := time.Date(2024, 6, 5, 9, 30, 0, 0, edt); !tm.After(time.Date(2024, 6, 5, 11, 0, 0, 0, edt)); tm = tm.Add(5 * time.Minute) {
		bars = append(bars, full(tm, 50))
	}

	s := Build(payload(day, "5m", bars...), models.RangeOneDay, models.IntervalFiveMinutes)
	assertContiguous(t, s.Points)
	last := s.Points[len(s.Points)-1]
	assert.Equal(t, timeutil.MarketClose, timeutil.TimeOfDay(last.Time))
	assert.True(t, last.Empty())
	// 9:30..16:00 inclusive at 5 minute spacing
	assert.Len(t, s.Points, 79)
	for i := 1; i < len(s.Points); i++ {
		assert.Equal(t, 5*time.Minute, s.Points[i].Time.Sub(s.Points[i-1].Time))
	}
}

func TestBuild_OneDayPaddingClampsToClose(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	s := Build(payload(day, "2m", full(time.Date(2024, 6, 5, 15, 57, 0, 0, edt), 1)), models.RangeOneDay, models.IntervalTwoMinutes)
	require.Len(t, s.Points, 3)
	assert.Equal(t, 59, s.Points[1].Time.Minute())
	assert.Equal(t, 16, s.Points[2].Time.Hour())
	assert.Equal(t, 0, s.Points[2].Time.Minute())
}

func TestBuild_Empty(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	s := Build(payload(day, "1m"), models.RangeOneDay, models.IntervalOneMinute)
	assert.Empty(t, s.Points)
	assert.False(t, s.Open.Valid)
	assert.False(t, s.High.Valid)
	assert.False(t, s.Low.Valid)
	assert.False(t, s.Close.Valid)

	a := Scale(s)
	assert.Equal(t, timeutil.Hour, a.Granularity)
	assert.Empty(t, a.Ticks)
}

func TestBuild_NoTradingPeriodUsesNominalSession(t *testing.T) {
	c := models.Chart{
		Meta:      models.ChartMeta{GmtOffset: -4 * 3600},
		Timestamp: []int64{time.Date(2024, 6, 5, 9, 0, 0, 0, edt).Unix(), time.Date(2024, 6, 5, 10, 0, 0, 0, edt).Unix()},
		Indicators: models.Indicators{Quote: []models.IndicatorQuote{{
			Close: []null.Float{null.FloatFrom(1), null.FloatFrom(2)},
		}}},
	}
	s := Build(c, models.RangeFiveDay, models.IntervalOneHour)
	require.Len(t, s.Points, 1)
	assert.Equal(t, 10, s.Points[0].Time.Hour())
	assert.Equal(t, 390.0, s.SessionMinutes())
}

func seriesSpanning(r models.TimeRange, iv models.TimeInterval, span time.Duration) Series {
	start := time.Date(2024, 1, 2, 9, 30, 0, 0, edt)
	return Series{
		Range:    r,
		Interval: iv,
		Points: []models.TradePoint{
			{Index: 0, Time: start, Close: null.FloatFrom(1)},
			{Index: 1, Time: start.Add(span), Close: null.FloatFrom(2)},
		},
	}
}

func TestScale_GranularityAndStep(t *testing.T) {
	tests := []struct {
		name string
		s    Series
		g    timeutil.Granularity
		step int
	}{
		{"1d/1m", seriesSpanning(models.RangeOneDay, models.IntervalOneMinute, time.Hour), timeutil.Hour, 60},
		{"1d/2m", seriesSpanning(models.RangeOneDay, models.IntervalTwoMinutes, time.Hour), timeutil.Hour, 30},
		{"5d/5m", seriesSpanning(models.RangeFiveDay, models.IntervalFiveMinutes, 96*time.Hour), timeutil.Daily, 78},
		{"1mo/30m", seriesSpanning(models.RangeOneMonth, models.IntervalThirtyMinutes, 30*timeutil.Day), timeutil.Daily, 13},
		{"6mo/1h", seriesSpanning(models.RangeSixMonth, models.IntervalOneHour, 180*timeutil.Day), timeutil.Monthly, 137},
		{"1y/1d", seriesSpanning(models.RangeOneYear, models.IntervalOneDay, 365*timeutil.Day), timeutil.Monthly, 21},
		{"5y/1wk", seriesSpanning(models.RangeFiveYear, models.IntervalOneWeek, 5*365*timeutil.Day), timeutil.Yearly, 50},
		{"max/1mo", seriesSpanning(models.RangeMax, models.IntervalOneMonth, 40*365*timeutil.Day), timeutil.Yearly, 12},
		{"ytd short", seriesSpanning(models.RangeYearToDate, models.IntervalOneMinute, 3*time.Hour), timeutil.Hour, 60},
		{"ytd days", seriesSpanning(models.RangeYearToDate, models.IntervalOneHour, 10*timeutil.Day), timeutil.Daily, 7},
		{"ytd months", seriesSpanning(models.RangeYearToDate, models.IntervalOneDay, 100*timeutil.Day), timeutil.Monthly, 21},
		{"ytd years", seriesSpanning(models.RangeYearToDate, models.IntervalOneDay, 800*timeutil.Day), timeutil.Yearly, 252},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Scale(tt.s)
			assert.Equal(t, tt.g, a.Granularity)
			assert.Equal(t, tt.step, a.MinStep)
		})
	}
}

func TestScale_TicksRespectMinStep(t *testing.T) {
	day := time.Date(2024, 6, 5, 0, 0, 0, 0, edt)
	var bars []bar
	for tm := time.Date(2024, 6, 5, 9, 30, 0, 0, edt); tm.Before(time.Date(2024, 6, 5, 16, 0, 0, 0, edt)); tm = tm.Add(time.Minute) {
		bars = append(bars, full(tm, 10))
	}
	s := Build(payload(day, "1m", bars...), models.RangeOneDay, models.IntervalOneMinute)
	require.Len(t, s.Points, 391)

	a := Scale(s)
	require.NotEmpty(t, a.Ticks)
	assert.Equal(t, 0, a.Ticks[0].Index)
	assert.Equal(t, "9:30 AM", a.Ticks[0].Label)
	for i := 1; i < len(a.Ticks); i++ {
		assert.GreaterOrEqual(t, a.Ticks[i].Index-a.Ticks[i-1].Index, a.MinStep)
	}
	assert.Equal(t, "4:00 PM", a.Ticks[len(a.Ticks)-1].Label)
}
