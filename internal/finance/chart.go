package finance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kjannette/stocks-backend/internal/interval"
	"github.com/kjannette/stocks-backend/internal/models"
)

// GetChart fetches the default window for range r of q.
func (c *Client) GetChart(ctx context.Context, q models.Quote, r models.TimeRange) (models.Chart, interval.Window, error) {
	if err := validateSymbol(q.Symbol); err != nil {
		return models.Chart{}, interval.Window{}, err
	}
	w, err := interval.Resolve(q, r, c.now())
	if err != nil {
		return models.Chart{}, interval.Window{}, err
	}
	chart, err := c.fetchChart(ctx, q.Symbol, w.Start, w.End, w.Interval)
	if err != nil {
		return models.Chart{}, w, err
	}
	return chart, w, nil
}

// GetChartBetween fetches an explicit window. The interval must be one
// upstream still serves for that window.
func (c *Client) GetChartBetween(ctx context.Context, q models.Quote, start, end time.Time, iv models.TimeInterval) (models.Chart, error) {
	if err := validateSymbol(q.Symbol); err != nil {
		return models.Chart{}, err
	}
	if err := interval.ValidateWindow(q.FirstTradeDate(), start, end, c.now(), iv); err != nil {
		return models.Chart{}, err
	}
	return c.fetchChart(ctx, q.Symbol, start, end, iv)
}

// GetChartForSymbol looks up the quote for symbol and fetches range r.
func (c *Client) GetChartForSymbol(ctx context.Context, symbol string, r models.TimeRange) (models.Chart, interval.Window, error) {
	if err := validateSymbol(symbol); err != nil {
		return models.Chart{}, interval.Window{}, err
	}
	if !r.Valid() {
		return models.Chart{}, interval.Window{}, fmt.Errorf("%w: time range %d", models.ErrInvalidArgument, int(r))
	}
	q, err := c.GetQuote(ctx, symbol)
	if err != nil {
		return models.Chart{}, interval.Window{}, err
	}
	return c.GetChart(ctx, q, r)
}

func (c *Client) fetchChart(ctx context.Context, symbol string, start, end time.Time, iv models.TimeInterval) (models.Chart, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", iv.String())
	params.Set("includePrePost", "true")
	params.Set("events", "div|split|earn")

	resp, err := c.get(ctx, "/v8/finance/chart/"+url.PathEscape(symbol), params, true)
	if err != nil {
		return models.Chart{}, fmt.Errorf("chart fetch: %w", err)
	}
	charts, err := decodeResult[models.Chart](resp, "chart")
	if err != nil {
		return models.Chart{}, fmt.Errorf("chart fetch: %w", err)
	}
	if len(charts) == 0 {
		return models.Chart{}, &Error{
			Kind:        KindProvider,
			StatusCode:  http.StatusOK,
			Code:        "Not Found",
			Description: fmt.Sprintf("no chart data for %s", symbol),
		}
	}
	return charts[0], nil
}
