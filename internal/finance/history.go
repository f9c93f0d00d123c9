package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/guregu/null/v6"

	"github.com/kjannette/stocks-backend/internal/httputil"
	"github.com/kjannette/stocks-backend/internal/models"
)

// The download endpoint answers 401 when the session has gone stale even
// though the cookies still look valid. Each retry starts a fresh session.
const (
	historyAttempts   = 5
	historyRetryDelay = 1 * time.Second
)

// GetHistoricTradeData downloads daily-or-coarser OHLCV rows for symbol
// between start and end.
func (c *Client) GetHistoricTradeData(ctx context.Context, symbol string, start, end time.Time, iv models.TimeInterval, includeAdjustedClose bool) ([]models.HistoricTradeData, error) {
	if err := validateSymbol(symbol); err != nil {
		return nil, err
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start must precede end", models.ErrInvalidArgument)
	}
	if !iv.Valid() || iv.Intraday() {
		return nil, fmt.Errorf("%w: interval %s not available for downloads", models.ErrInvalidArgument, iv)
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", iv.String())
	params.Set("events", "history")
	params.Set("includeAdjustedClose", strconv.FormatBool(includeAdjustedClose))
	path := "/v7/finance/download/" + url.PathEscape(symbol)

	cfg := httputil.Fixed(historyAttempts, historyRetryDelay)
	cfg.Retryable = httputil.Status(http.StatusUnauthorized)
	cfg.Sleep = c.sleep
	cfg.Logger = &c.log
	cfg.BeforeRetry = func(int, *resty.Response) { c.session.Invalidate() }

	resp, err := httputil.Do(ctx, cfg, func(ctx context.Context) (*resty.Response, error) {
		return c.get(ctx, path, params, false)
	})
	switch {
	case errors.Is(err, httputil.ErrExhausted):
		return nil, fmt.Errorf("history download: %w", &Error{
			Kind:        KindAuthExpired,
			StatusCode:  resp.StatusCode(),
			Description: truncate(resp.String(), 512),
		})
	case err != nil:
		return nil, fmt.Errorf("history download: %w", err)
	case !resp.IsSuccess():
		return nil, fmt.Errorf("history download: %w", responseError(resp))
	}

	rows, err := parseHistoricCSV(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("history download: %w", &Error{Kind: KindTransport, StatusCode: resp.StatusCode(), Err: err})
	}
	return rows, nil
}

// parseHistoricCSV reads Date,Open,High,Low,Close,Adj Close,Volume rows.
// Columns are located by header name; "null" marks a missing cell.
func parseHistoricCSV(r io.Reader) ([]models.HistoricTradeData, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", ""))] = i
	}
	dateIdx, ok := cols["date"]
	if !ok {
		return nil, errors.New("csv has no Date column")
	}

	field := func(rec []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var rows []models.HistoricTradeData
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		if dateIdx >= len(rec) {
			continue
		}
		date, err := time.Parse(time.DateOnly, strings.TrimSpace(rec[dateIdx]))
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", rec[dateIdx], err)
		}
		rows = append(rows, models.HistoricTradeData{
			Date:     date,
			Open:     parseFloat(field(rec, "open")),
			High:     parseFloat(field(rec, "high")),
			Low:      parseFloat(field(rec, "low")),
			Close:    parseFloat(field(rec, "close")),
			AdjClose: parseFloat(field(rec, "adjclose")),
			Volume:   parseInt(field(rec, "volume")),
		})
	}
	return rows, nil
}

func parseFloat(s string) null.Float {
	if s == "" || s == "null" {
		return null.Float{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func parseInt(s string) null.Int {
	if s == "" || s == "null" {
		return null.Int{}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return null.Int{}
	}
	return null.IntFrom(v)
}
