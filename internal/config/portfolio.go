package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kjannette/stocks-backend/internal/models"
)

// LoadPortfolio reads the YAML portfolio file, if any, and appends the
// SYMBOLS list. A missing file yields just the env symbols.
func (c *Config) LoadPortfolio() (models.Portfolio, error) {
	var p models.Portfolio
	if c.PortfolioFile != "" {
		b, err := os.ReadFile(c.PortfolioFile)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return p, fmt.Errorf("read portfolio: %w", err)
		default:
			if p, err = ParsePortfolio(b); err != nil {
				return p, fmt.Errorf("%s: %w", c.PortfolioFile, err)
			}
		}
	}
	for _, s := range c.Symbols {
		p.Add(s)
	}
	return p, nil
}

// ParsePortfolio decodes `stocks: [{symbol: AAPL}, ...]`, dropping blanks
// and duplicates.
func ParsePortfolio(b []byte) (models.Portfolio, error) {
	var raw models.Portfolio
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return models.Portfolio{}, fmt.Errorf("parse portfolio: %w", err)
	}
	var p models.Portfolio
	for _, s := range raw.Stocks {
		p.Add(s.Symbol)
	}
	return p, nil
}
