package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kjannette/stocks-backend/internal/models"
)

const maxHistorySpan = 50 * 365 * 24 * time.Hour

// handleHistory returns daily-or-coarser download rows between from and to
// (inclusive dates, YYYY-MM-DD). to defaults to today, from to a year
// before it.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := s.now().UTC()

	end := now
	if v := q.Get("to"); v != "" {
		if !validateDate(v) {
			writeError(w, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD")
			return
		}
		d, _ := time.Parse("2006-01-02", v)
		end = d.Add(24 * time.Hour)
		if end.After(now) {
			end = now
		}
	}

	start := end.AddDate(-1, 0, 0)
	if v := q.Get("from"); v != "" {
		if !validateDate(v) {
			writeError(w, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD")
			return
		}
		start, _ = time.Parse("2006-01-02", v)
	}
	if !start.Before(end) {
		writeError(w, http.StatusBadRequest, "from must be before to")
		return
	}
	if end.Sub(start) > maxHistorySpan {
		writeError(w, http.StatusBadRequest, "requested span too large")
		return
	}

	iv := models.IntervalOneDay
	if v := q.Get("interval"); v != "" {
		parsed, err := models.ParseTimeInterval(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		iv = parsed
	}

	adjusted := true
	if v := q.Get("adjusted"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "adjusted must be true or false")
			return
		}
		adjusted = b
	}

	rows, err := s.market.GetHistoricTradeData(r.Context(), r.PathValue("symbol"), start, end, iv, adjusted)
	if err != nil {
		s.writeUpstreamError(w, r, err)
		return
	}
	if rows == nil {
		rows = []models.HistoricTradeData{}
	}
	writeJSON(w, http.StatusOK, rows)
}
