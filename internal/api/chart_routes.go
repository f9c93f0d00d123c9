package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/kjannette/stocks-backend/internal/chart"
	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

type summaryJSON struct {
	Open  string `json:"open"`
	High  string `json:"high"`
	Low   string `json:"low"`
	Close string `json:"close"`
}

type chartResponse struct {
	Symbol  string       `json:"symbol"`
	Source  string       `json:"source"`
	Start   *time.Time   `json:"start,omitempty"`
	End     *time.Time   `json:"end,omitempty"`
	Series  chart.Series `json:"series"`
	Axis    chart.Axis   `json:"axis"`
	Summary summaryJSON  `json:"summary"`
}

// handleChart serves the poller's detail chart when it matches, otherwise
// resolves and fetches the window on demand.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(r.PathValue("symbol"))
	rng, err := parseRange(r, models.RangeOneDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp := chartResponse{Symbol: symbol, Source: "latest"}
	var (
		payload models.Chart
		iv      models.TimeInterval
	)
	if cu, ok := s.latest.Chart(symbol, rng); ok {
		payload, iv = cu.Chart, cu.Interval
		resp.Start, resp.End = &cu.Start, &cu.End
	} else {
		c, win, err := s.market.GetChartForSymbol(r.Context(), symbol, rng)
		if err != nil {
			s.writeUpstreamError(w, r, err)
			return
		}
		payload, iv = c, win.Interval
		resp.Source = "upstream"
		resp.Start, resp.End = &win.Start, &win.End
	}

	resp.Series = chart.Build(payload, rng, iv)
	resp.Axis = chart.Scale(resp.Series)
	resp.Summary = summaryJSON{
		Open:  timeutil.FormatPrice(resp.Series.Open),
		High:  timeutil.FormatPrice(resp.Series.High),
		Low:   timeutil.FormatPrice(resp.Series.Low),
		Close: timeutil.FormatPrice(resp.Series.Close),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetDetail(w http.ResponseWriter, r *http.Request) {
	rng, err := parseRange(r, models.RangeOneDay)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.poller.WatchDetail(r.PathValue("symbol"), rng); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	symbol, rng, _ := s.poller.Detail()
	s.log.Info().Str("symbol", symbol).Stringer("range", rng).Msg("detail stock changed")
	writeJSON(w, http.StatusOK, map[string]string{"symbol": symbol, "range": rng.String()})
}
