package models

import (
	"time"

	"github.com/guregu/null/v6"

	"github.com/kjannette/stocks-backend/internal/timeutil"
)

// Quote is a point-in-time snapshot for one symbol as returned by the
// quote endpoint. It is replaced wholesale on every poll.
type Quote struct {
	Symbol                     string     `json:"symbol"`
	ShortName                  string     `json:"shortName,omitempty"`
	LongName                   string     `json:"longName,omitempty"`
	DisplayName                string     `json:"displayName,omitempty"`
	QuoteType                  string     `json:"quoteType,omitempty"`
	Currency                   string     `json:"currency"`
	Exchange                   string     `json:"exchange"`
	FullExchangeName           string     `json:"fullExchangeName,omitempty"`
	ExchangeTimezoneName       string     `json:"exchangeTimezoneName,omitempty"`
	ExchangeTimezoneShortName  string     `json:"exchangeTimezoneShortName,omitempty"`
	MarketState                string     `json:"marketState,omitempty"`
	GmtOffSetMilliseconds      int64      `json:"gmtOffSetMilliseconds"`
	FirstTradeDateMilliseconds int64      `json:"firstTradeDateMilliseconds"`
	PriceHint                  int64      `json:"priceHint,omitempty"`
	RegularMarketTime          int64      `json:"regularMarketTime"`
	RegularMarketPrice         float64    `json:"regularMarketPrice"`
	RegularMarketChange        float64    `json:"regularMarketChange"`
	RegularMarketChangePercent float64    `json:"regularMarketChangePercent"`
	RegularMarketOpen          float64    `json:"regularMarketOpen"`
	RegularMarketDayHigh       float64    `json:"regularMarketDayHigh"`
	RegularMarketDayLow        float64    `json:"regularMarketDayLow"`
	RegularMarketPreviousClose float64    `json:"regularMarketPreviousClose"`
	RegularMarketVolume        int64      `json:"regularMarketVolume"`
	AverageDailyVolume3Month   null.Int   `json:"averageDailyVolume3Month"`
	FiftyTwoWeekHigh           float64    `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow            float64    `json:"fiftyTwoWeekLow"`
	MarketCap                  null.Int   `json:"marketCap"`
	TrailingPE                 null.Float `json:"trailingPE"`
	EpsTrailingTwelveMonths    null.Float `json:"epsTrailingTwelveMonths"`
	PostMarketPrice            null.Float `json:"postMarketPrice"`
	PostMarketChange           null.Float `json:"postMarketChange"`
}

// GmtOffsetSeconds is the exchange's offset from UTC.
func (q Quote) GmtOffsetSeconds() int64 {
	return q.GmtOffSetMilliseconds / 1000
}

// Location is the fixed zone for the exchange's current offset.
func (q Quote) Location() *time.Location {
	return timeutil.Zone(q.GmtOffsetSeconds())
}

// FirstTradeDate is the first trade instant in the exchange's offset.
func (q Quote) FirstTradeDate() time.Time {
	return timeutil.FromUnixMilli(q.FirstTradeDateMilliseconds, q.GmtOffSetMilliseconds)
}

// MarketTime is the instant of the last regular-market price.
func (q Quote) MarketTime() time.Time {
	return timeutil.FromUnix(q.RegularMarketTime, q.GmtOffsetSeconds())
}

// Name prefers the long company name, falling back to the short one.
func (q Quote) Name() string {
	switch {
	case q.LongName != "":
		return q.LongName
	case q.ShortName != "":
		return q.ShortName
	}
	return q.Symbol
}
