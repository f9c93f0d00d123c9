package models

import "strings"

type Stock struct {
	Symbol string `json:"symbol" yaml:"symbol"`
}

// Portfolio is the set of watched stocks keyed by symbol.
type Portfolio struct {
	Stocks []Stock `json:"stocks" yaml:"stocks"`
}

func NewPortfolio(symbols ...string) Portfolio {
	var p Portfolio
	for _, s := range symbols {
		p.Add(s)
	}
	return p
}

// Add appends a symbol unless it is blank or already present.
func (p *Portfolio) Add(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	if symbol == "" || p.Contains(symbol) {
		return false
	}
	p.Stocks = append(p.Stocks, Stock{Symbol: symbol})
	return true
}

func (p Portfolio) Contains(symbol string) bool {
	symbol = normalizeSymbol(symbol)
	for _, s := range p.Stocks {
		if normalizeSymbol(s.Symbol) == symbol {
			return true
		}
	}
	return false
}

// Symbols returns the distinct, non-blank symbols in insertion order.
func (p Portfolio) Symbols() []string {
	out := make([]string, 0, len(p.Stocks))
	seen := make(map[string]bool, len(p.Stocks))
	for _, s := range p.Stocks {
		sym := normalizeSymbol(s.Symbol)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
