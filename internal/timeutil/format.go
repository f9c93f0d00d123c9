package timeutil

import (
	"time"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Missing is rendered for absent numeric values.
const Missing = "-"

var printer = message.NewPrinter(language.AmericanEnglish)

const (
	million        = 1_000_000
	tenMillion     = 10 * million
	hundredMillion = 100 * million
	billion        = 1_000_000_000
	tenBillion     = 10 * billion
	hundredBillion = 100 * billion
	trillion       = 1_000_000_000_000
)

// FormatPrice renders a price with thousands grouping and two decimals.
func FormatPrice(v null.Float) string {
	if !v.Valid {
		return Missing
	}
	return printer.Sprintf("%.2f", v.Float64)
}

// FormatInteger renders an integer with thousands grouping.
func FormatInteger(v int64) string {
	return printer.Sprintf("%d", v)
}

// FormatVolume abbreviates large counts (volume, market cap). Precision
// shrinks as the mantissa grows so labels keep four significant digits.
func FormatVolume(v null.Int) string {
	if !v.Valid {
		return Missing
	}
	n := v.Int64
	f := float64(n)
	switch {
	case n > trillion:
		return printer.Sprintf("%.3fT", f/trillion)
	case n > hundredBillion:
		return printer.Sprintf("%.1fB", f/billion)
	case n > tenBillion:
		return printer.Sprintf("%.2fB", f/billion)
	case n > billion:
		return printer.Sprintf("%.3fB", f/billion)
	case n > hundredMillion:
		return printer.Sprintf("%.1fM", f/million)
	case n > tenMillion:
		return printer.Sprintf("%.2fM", f/million)
	case n > million:
		return printer.Sprintf("%.3fM", f/million)
	}
	return FormatInteger(n)
}

// FormatChange renders a signed price change rounded to cents ("+1.25", "-0.40").
func FormatChange(change float64) string {
	d := decimal.NewFromFloat(change).Round(2)
	if d.IsNegative() {
		return d.StringFixed(2)
	}
	return "+" + d.StringFixed(2)
}

// FormatPercent renders a signed percent change ("+1.52%").
func FormatPercent(pct float64) string {
	return FormatChange(pct) + "%"
}

// Granularity selects how chart axis ticks are labelled.
type Granularity int

const (
	Hour Granularity = iota
	Daily
	Monthly
	Yearly
)

var granularityNames = [...]string{"hour", "day", "month", "year"}

func (g Granularity) String() string {
	if g < Hour || g > Yearly {
		return "unknown"
	}
	return granularityNames[g]
}

func (g Granularity) MarshalText() ([]byte, error) {
	return []byte(g.String()), nil
}

// FormatTick renders an axis label for t at the given granularity.
func FormatTick(t time.Time, g Granularity) string {
	switch g {
	case Hour:
		return t.Format("3:04 PM")
	case Daily:
		return t.Format("Jan 2")
	case Monthly:
		return t.Format("Jan")
	}
	return t.Format("2006")
}
