package models

import "time"

// Update is the batch a poll tick publishes. Nil/empty members mean that
// data kind produced nothing this tick.
type Update struct {
	At     time.Time     `json:"at"`
	Quotes []Quote       `json:"quotes,omitempty"`
	Sparks []SparkResult `json:"sparks,omitempty"`
	Chart  *ChartUpdate  `json:"chart,omitempty"`
}

// ChartUpdate is a detail chart with the window it was resolved to. The
// interval is the one requested, not the payload's granularity token.
type ChartUpdate struct {
	Symbol   string       `json:"symbol"`
	Range    TimeRange    `json:"range"`
	Interval TimeInterval `json:"interval"`
	Start    time.Time    `json:"start"`
	End      time.Time    `json:"end"`
	Chart    Chart        `json:"chart"`
}

func (u Update) Empty() bool {
	return len(u.Quotes) == 0 && len(u.Sparks) == 0 && u.Chart == nil
}
