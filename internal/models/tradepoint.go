package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// TradePoint is one bar of a built series. Index is the bar's position in
// the filtered series and serves as the chart's x axis.
type TradePoint struct {
	Index int        `json:"index"`
	Time  time.Time  `json:"time"`
	Open  null.Float `json:"open"`
	High  null.Float `json:"high"`
	Low   null.Float `json:"low"`
	Close null.Float `json:"close"`
}

// Empty reports a padding point with no trade data.
func (p TradePoint) Empty() bool {
	return !p.Open.Valid && !p.High.Valid && !p.Low.Valid && !p.Close.Valid
}

// HistoricTradeData is one row of the historic CSV download.
type HistoricTradeData struct {
	Date     time.Time  `json:"date"`
	Open     null.Float `json:"open"`
	High     null.Float `json:"high"`
	Low      null.Float `json:"low"`
	Close    null.Float `json:"close"`
	AdjClose null.Float `json:"adjClose"`
	Volume   null.Int   `json:"volume"`
}
