package chart

import (
	"math"
	"time"

	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

// Trading days per label bucket.
const (
	daysPerMonth = 21
	daysPerYear  = 252
)

// Axis is the labelling plan for a series' x axis, in point-index units.
type Axis struct {
	Granularity timeutil.Granularity `json:"granularity"`
	MinStep     int                  `json:"minStep"`
	Ticks       []Tick               `json:"ticks"`
}

type Tick struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Scale picks label granularity and tick spacing for s.
func Scale(s Series) Axis {
	g := granularity(s)
	a := Axis{Granularity: g, MinStep: minStep(g, s.Interval, s.SessionMinutes())}
	a.Ticks = ticks(s.Points, g, a.MinStep)
	return a
}

func granularity(s Series) timeutil.Granularity {
	switch s.Range {
	case models.RangeOneDay:
		return timeutil.Hour
	case models.RangeFiveDay, models.RangeOneMonth:
		return timeutil.Daily
	case models.RangeThreeMonth, models.RangeSixMonth, models.RangeOneYear, models.RangeTwoYear:
		return timeutil.Monthly
	case models.RangeYearToDate:
		var elapsed time.Duration
		if n := len(s.Points); n > 0 {
			elapsed = s.Points[n-1].Time.Sub(s.Points[0].Time)
		}
		switch {
		case elapsed < timeutil.Day:
			return timeutil.Hour
		case elapsed <= 31*timeutil.Day:
			return timeutil.Daily
		case elapsed <= 730*timeutil.Day:
			return timeutil.Monthly
		}
	}
	return timeutil.Yearly
}

// barsPerDay is how many bars of iv one trading day produces.
func barsPerDay(iv models.TimeInterval, sessionMinutes float64) float64 {
	switch iv {
	case models.IntervalOneDay:
		return 1
	case models.IntervalFiveDays, models.IntervalOneWeek:
		return 1.0 / 5
	case models.IntervalOneMonth:
		return 1.0 / daysPerMonth
	case models.IntervalThreeMonths:
		return 1.0 / (3 * daysPerMonth)
	}
	if m := iv.Duration().Minutes(); m > 0 {
		return sessionMinutes / m
	}
	return 1
}

func minStep(g timeutil.Granularity, iv models.TimeInterval, sessionMinutes float64) int {
	var bars float64
	switch g {
	case timeutil.Hour:
		bars = 1
		if iv.Intraday() {
			bars = 60 / iv.Duration().Minutes()
		}
	case timeutil.Daily:
		bars = barsPerDay(iv, sessionMinutes)
	case timeutil.Monthly:
		bars = daysPerMonth * barsPerDay(iv, sessionMinutes)
	default:
		bars = daysPerYear * barsPerDay(iv, sessionMinutes)
	}
	return int(math.Max(1, math.Round(bars)))
}

// ticks marks the first point of each new hour/day/month/year bucket,
// keeping labels at least step points apart.
func ticks(points []models.TradePoint, g timeutil.Granularity, step int) []Tick {
	var (
		out     []Tick
		prevKey = -1
		lastIdx = math.MinInt32
	)
	for _, p := range points {
		key := bucket(p.Time, g)
		if key == prevKey {
			continue
		}
		prevKey = key
		if p.Index-lastIdx < step {
			continue
		}
		lastIdx = p.Index
		out = append(out, Tick{Index: p.Index, Label: timeutil.FormatTick(p.Time, g)})
	}
	return out
}

func bucket(t time.Time, g timeutil.Granularity) int {
	y, m, d := t.Date()
	switch g {
	case timeutil.Hour:
		return ((y*100+int(m))*100+d)*100 + t.Hour()
	case timeutil.Daily:
		return (y*100+int(m))*100 + d
	case timeutil.Monthly:
		return y*100 + int(m)
	}
	return y
}
