package finance

import (
	"fmt"
	"strings"

	"github.com/kjannette/stocks-backend/internal/models"
)

func validateSymbol(symbol string) error {
	if strings.TrimSpace(symbol) == "" {
		return fmt.Errorf("%w: empty symbol", models.ErrInvalidArgument)
	}
	return nil
}

func validateSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return fmt.Errorf("%w: no symbols", models.ErrInvalidArgument)
	}
	for i, s := range symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: symbol %d is empty", models.ErrInvalidArgument, i)
		}
	}
	return nil
}
