package models

import "time"

// QuoteSnapshot is the persisted latest quote for one symbol. There is one
// row per symbol; each poll overwrites it.
type QuoteSnapshot struct {
	Symbol        string    `json:"symbol"`
	MarketTime    time.Time `json:"marketTime"`
	Price         float64   `json:"price"`
	Change        float64   `json:"change"`
	ChangePercent float64   `json:"changePercent"`
	Volume        int64     `json:"volume"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	TradingDay    string    `json:"tradingDay"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
