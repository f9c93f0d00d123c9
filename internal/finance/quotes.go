package finance

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/kjannette/stocks-backend/internal/models"
)

// GetQuotes fetches quote snapshots for symbols in one request.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error) {
	if err := validateSymbols(symbols); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	resp, err := c.get(ctx, "/v7/finance/quote", params, true)
	if err != nil {
		return nil, fmt.Errorf("quote fetch: %w", err)
	}
	quotes, err := decodeResult[models.Quote](resp, "quoteResponse")
	if err != nil {
		return nil, fmt.Errorf("quote fetch: %w", err)
	}
	return quotes, nil
}

// GetQuote fetches a single symbol's quote.
func (c *Client) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	if err := validateSymbol(symbol); err != nil {
		return models.Quote{}, err
	}
	quotes, err := c.GetQuotes(ctx, []string{symbol})
	if err != nil {
		return models.Quote{}, err
	}
	for _, q := range quotes {
		if strings.EqualFold(q.Symbol, symbol) {
			return q, nil
		}
	}
	if len(quotes) > 0 {
		return quotes[0], nil
	}
	return models.Quote{}, &Error{
		Kind:        KindProvider,
		StatusCode:  http.StatusOK,
		Code:        "Not Found",
		Description: fmt.Sprintf("no quote for %s", symbol),
	}
}
