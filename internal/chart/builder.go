// Package chart turns raw chart payloads into display-ready series and
// picks axis labelling for them.
package chart

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

// Series is a filtered, index-addressed run of trade points with its
// summary values. Summary fields stay null when no bar carried data.
type Series struct {
	Range    models.TimeRange     `json:"range"`
	Interval models.TimeInterval  `json:"interval"`
	Period   models.TradingPeriod `json:"period"`
	Points   []models.TradePoint  `json:"points"`
	Open     null.Float           `json:"open"`
	High     null.Float           `json:"high"`
	Low      null.Float           `json:"low"`
	Close    null.Float           `json:"close"`
}

// SessionMinutes is the length of the regular session in minutes.
func (s Series) SessionMinutes() float64 {
	if s.Period.IsZero() || s.Period.End <= s.Period.Start {
		return (timeutil.MarketClose - timeutil.MarketOpen).Minutes()
	}
	return float64(s.Period.End-s.Period.Start) / 60
}

// Build converts payload c, fetched for range r at interval iv, into a
// series. Bars with no OHLC values are dropped. Intraday bars outside the
// regular session's time-of-day window are dropped too. One-day series
// are padded with empty points up to the session close.
func Build(c models.Chart, r models.TimeRange, iv models.TimeInterval) Series {
	s := Series{Range: r, Interval: iv}

	openToD, closeToD := timeutil.MarketOpen, timeutil.MarketClose
	if p, ok := c.Meta.RegularPeriod(); ok {
		s.Period = p
		openToD = timeutil.TimeOfDay(p.StartTime())
		closeToD = timeutil.TimeOfDay(p.EndTime())
	}

	offset := c.Meta.GmtOffset
	if offset == 0 {
		offset = s.Period.GmtOffset
	}

	s.Points = make([]models.TradePoint, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		o, h, l, cl := c.Bar(i)
		if !o.Valid && !h.Valid && !l.Valid && !cl.Valid {
			continue
		}
		ts := timeutil.FromUnix(c.Timestamp[i], offset)
		if iv.Intraday() {
			tod := timeutil.TimeOfDay(ts)
			if tod < openToD || tod >= closeToD {
				continue
			}
		}

		s.Points = append(s.Points, models.TradePoint{
			Index: len(s.Points),
			Time:  ts,
			Open:  o,
			High:  h,
			Low:   l,
			Close: cl,
		})

		if !s.Open.Valid {
			if o.Valid {
				s.Open = o
			} else if cl.Valid {
				s.Open = cl
			}
		}
		if h.Valid && (!s.High.Valid || h.Float64 > s.High.Float64) {
			s.High = h
		}
		if l.Valid && (!s.Low.Valid || l.Float64 < s.Low.Float64) {
			s.Low = l
		}
		if cl.Valid {
			s.Close = cl
		}
	}

	if r == models.RangeOneDay && len(s.Points) > 0 {
		s.Points = padToClose(s.Points, iv.Duration(), closeToD)
	}
	return s
}

// padToClose appends empty points every step after the last bar, the final
// one landing exactly on the session close.
func padToClose(points []models.TradePoint, step time.Duration, closeToD time.Duration) []models.TradePoint {
	last := points[len(points)-1].Time
	closeAt := timeutil.AtTimeOfDay(last, closeToD)
	if !last.Before(closeAt) || step <= 0 {
		return points
	}
	for t := last.Add(step); t.Before(closeAt); t = t.Add(step) {
		points = append(points, models.TradePoint{Index: len(points), Time: t})
	}
	return append(points, models.TradePoint{Index: len(points), Time: closeAt})
}
