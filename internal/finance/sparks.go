package finance

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/kjannette/stocks-backend/internal/interval"
	"github.com/kjannette/stocks-backend/internal/models"
)

// GetSparks fetches a single-indicator series for each symbol.
func (c *Client) GetSparks(ctx context.Context, symbols []string, ind models.Indicator, r models.TimeRange, iv models.TimeInterval) ([]models.SparkResult, error) {
	if err := validateSymbols(symbols); err != nil {
		return nil, err
	}
	if !ind.Valid() {
		return nil, fmt.Errorf("%w: indicator %d", models.ErrInvalidArgument, int(ind))
	}
	if !interval.IsValidForRange(r, iv) {
		return nil, fmt.Errorf("%w: interval %s not valid for range %s", models.ErrInvalidArgument, iv, r)
	}

	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("range", r.String())
	params.Set("interval", iv.String())
	params.Set("indicators", ind.String())
	params.Set("includeTimestamps", "false")
	params.Set("includePrePost", "false")

	resp, err := c.get(ctx, "/v7/finance/spark", params, false)
	if err != nil {
		return nil, fmt.Errorf("spark fetch: %w", err)
	}
	sparks, err := decodeResult[models.SparkResult](resp, "spark")
	if err != nil {
		return nil, fmt.Errorf("spark fetch: %w", err)
	}
	return sparks, nil
}

// GetDefaultSparks fetches today's one-minute closing prices, the series
// shown next to each watched symbol.
func (c *Client) GetDefaultSparks(ctx context.Context, symbols []string) ([]models.SparkResult, error) {
	return c.GetSparks(ctx, symbols, models.IndicatorClose, models.RangeOneDay, models.IntervalOneMinute)
}
