package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/guregu/null/v6"

	"github.com/kjannette/stocks-backend/internal/timeutil"
)

// Chart is one chart payload: a timestamp axis with parallel nullable
// OHLCV arrays and the metadata describing how it was sampled.
type Chart struct {
	Meta       ChartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

type Indicators struct {
	Quote    []IndicatorQuote    `json:"quote"`
	AdjClose []IndicatorAdjClose `json:"adjclose,omitempty"`
}

type IndicatorQuote struct {
	Open   []null.Float `json:"open,omitempty"`
	High   []null.Float `json:"high,omitempty"`
	Low    []null.Float `json:"low,omitempty"`
	Close  []null.Float `json:"close,omitempty"`
	Volume []null.Int   `json:"volume,omitempty"`
}

type IndicatorAdjClose struct {
	AdjClose []null.Float `json:"adjclose"`
}

// Len is the number of bars on the timestamp axis.
func (c Chart) Len() int {
	return len(c.Timestamp)
}

// Bar returns the OHLC values of bar i. Arrays shorter than the timestamp
// axis, or missing entirely, read as null.
func (c Chart) Bar(i int) (o, h, l, cl null.Float) {
	if len(c.Indicators.Quote) == 0 {
		return
	}
	q := c.Indicators.Quote[0]
	return at(q.Open, i), at(q.High, i), at(q.Low, i), at(q.Close, i)
}

// Time returns bar i's timestamp in the exchange offset.
func (c Chart) Time(i int) time.Time {
	return timeutil.FromUnix(c.Timestamp[i], c.Meta.GmtOffset)
}

func at(vals []null.Float, i int) null.Float {
	if i < 0 || i >= len(vals) {
		return null.Float{}
	}
	return vals[i]
}

type ChartMeta struct {
	Currency             string               `json:"currency"`
	Symbol               string               `json:"symbol"`
	ExchangeName         string               `json:"exchangeName"`
	InstrumentType       string               `json:"instrumentType"`
	FirstTradeDate       int64                `json:"firstTradeDate"`
	RegularMarketTime    int64                `json:"regularMarketTime"`
	GmtOffset            int64                `json:"gmtoffset"`
	Timezone             string               `json:"timezone"`
	ExchangeTimezoneName string               `json:"exchangeTimezoneName"`
	RegularMarketPrice   float64              `json:"regularMarketPrice"`
	ChartPreviousClose   float64              `json:"chartPreviousClose"`
	PreviousClose        float64              `json:"previousClose"`
	PriceHint            int64                `json:"priceHint"`
	CurrentTradingPeriod CurrentTradingPeriod `json:"currentTradingPeriod"`
	TradingPeriods       TradingPeriods       `json:"tradingPeriods"`
	DataGranularity      string               `json:"dataGranularity"`
	Range                string               `json:"range"`
	ValidRanges          []string             `json:"validRanges"`
}

// Granularity parses the payload's dataGranularity token.
func (m ChartMeta) Granularity() (TimeInterval, error) {
	return ParseTimeInterval(m.DataGranularity)
}

// RegularPeriod picks the regular session in effect: the payload's current
// period when present, otherwise the first entry of its regular table.
func (m ChartMeta) RegularPeriod() (TradingPeriod, bool) {
	if !m.CurrentTradingPeriod.Regular.IsZero() {
		return m.CurrentTradingPeriod.Regular, true
	}
	for _, day := range m.TradingPeriods.Regular {
		for _, p := range day {
			if !p.IsZero() {
				return p, true
			}
		}
	}
	return TradingPeriod{}, false
}

type TradingPeriod struct {
	Timezone  string `json:"timezone"`
	Start     int64  `json:"start"`
	End       int64  `json:"end"`
	GmtOffset int64  `json:"gmtoffset"`
}

func (p TradingPeriod) IsZero() bool {
	return p.Start == 0 && p.End == 0
}

func (p TradingPeriod) StartTime() time.Time {
	return timeutil.FromUnix(p.Start, p.GmtOffset)
}

func (p TradingPeriod) EndTime() time.Time {
	return timeutil.FromUnix(p.End, p.GmtOffset)
}

type CurrentTradingPeriod struct {
	Pre     TradingPeriod `json:"pre"`
	Regular TradingPeriod `json:"regular"`
	Post    TradingPeriod `json:"post"`
}

// TradingPeriods is the per-day session table. Upstream sends an object
// with pre/regular/post tables when includePrePost is set, and a bare
// regular table otherwise.
type TradingPeriods struct {
	Pre     [][]TradingPeriod `json:"pre,omitempty"`
	Regular [][]TradingPeriod `json:"regular,omitempty"`
	Post    [][]TradingPeriod `json:"post,omitempty"`
}

func (tp *TradingPeriods) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '[' {
		var regular [][]TradingPeriod
		if err := json.Unmarshal(b, &regular); err != nil {
			return fmt.Errorf("trading periods: %w", err)
		}
		*tp = TradingPeriods{Regular: regular}
		return nil
	}
	type plain TradingPeriods
	var v plain
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("trading periods: %w", err)
	}
	*tp = TradingPeriods(v)
	return nil
}

// SparkResult carries the spark charts for one symbol.
type SparkResult struct {
	Symbol   string  `json:"symbol"`
	Response []Chart `json:"response"`
}

// Chart returns the first spark chart, if any.
func (s SparkResult) Chart() (Chart, bool) {
	if len(s.Response) == 0 {
		return Chart{}, false
	}
	return s.Response[0], true
}
