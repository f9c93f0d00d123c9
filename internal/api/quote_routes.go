package api

import (
	"net/http"

	"github.com/guregu/null/v6"

	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

// quoteDisplay carries the preformatted strings a details page shows.
type quoteDisplay struct {
	Price         string `json:"price"`
	Change        string `json:"change"`
	ChangePercent string `json:"changePercent"`
	Open          string `json:"open"`
	High          string `json:"high"`
	Low           string `json:"low"`
	Volume        string `json:"volume"`
	AvgVolume     string `json:"avgVolume"`
	MarketCap     string `json:"marketCap"`
	PERatio       string `json:"peRatio"`
	EPS           string `json:"eps"`
	YearHigh      string `json:"yearHigh"`
	YearLow       string `json:"yearLow"`
	MarketTime    string `json:"marketTime"`
}

type quoteJSON struct {
	models.Quote
	Name    string       `json:"name"`
	Display quoteDisplay `json:"display"`
}

func newQuoteJSON(q models.Quote) quoteJSON {
	return quoteJSON{
		Quote: q,
		Name:  q.Name(),
		Display: quoteDisplay{
			Price:         timeutil.FormatPrice(null.FloatFrom(q.RegularMarketPrice)),
			Change:        timeutil.FormatChange(q.RegularMarketChange),
			ChangePercent: timeutil.FormatPercent(q.RegularMarketChangePercent),
			Open:          timeutil.FormatPrice(null.FloatFrom(q.RegularMarketOpen)),
			High:          timeutil.FormatPrice(null.FloatFrom(q.RegularMarketDayHigh)),
			Low:           timeutil.FormatPrice(null.FloatFrom(q.RegularMarketDayLow)),
			Volume:        timeutil.FormatVolume(null.IntFrom(q.RegularMarketVolume)),
			AvgVolume:     timeutil.FormatVolume(q.AverageDailyVolume3Month),
			MarketCap:     timeutil.FormatVolume(q.MarketCap),
			PERatio:       timeutil.FormatPrice(q.TrailingPE),
			EPS:           timeutil.FormatPrice(q.EpsTrailingTwelveMonths),
			YearHigh:      timeutil.FormatPrice(null.FloatFrom(q.FiftyTwoWeekHigh)),
			YearLow:       timeutil.FormatPrice(null.FloatFrom(q.FiftyTwoWeekLow)),
			MarketTime:    q.MarketTime().Format("Jan 2, 3:04 PM MST"),
		},
	}
}

func (s *Server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	quotes := s.latest.Quotes()
	out := make([]quoteJSON, len(quotes))
	for i, q := range quotes {
		out[i] = newQuoteJSON(q)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	q, ok := s.latest.Quote(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "no quote published for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteJSON(q))
}

func (s *Server) handleSpark(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	sp, ok := s.latest.Spark(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "no spark published for "+symbol)
		return
	}
	writeJSON(w, http.StatusOK, sp)
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusServiceUnavailable, "database disabled")
		return
	}
	snaps, err := s.snapshots.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list snapshots")
		writeError(w, http.StatusInternalServerError, "failed to fetch snapshots")
		return
	}
	if snaps == nil {
		snaps = []models.QuoteSnapshot{}
	}
	writeJSON(w, http.StatusOK, snaps)
}
