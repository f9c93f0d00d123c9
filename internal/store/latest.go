// Package store keeps the most recent data each poll published, keyed by
// symbol, for readers that do not sit on the poller goroutine.
package store

import (
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/kjannette/stocks-backend/internal/models"
)

const (
	quotePrefix = "quote:"
	sparkPrefix = "spark:"
	chartPrefix = "chart:"
	updatedKey  = "updated"
)

// Latest is an in-memory snapshot of the newest quotes, sparks and detail
// charts. Entries older than the configured TTL disappear so a stalled
// poller does not keep serving stale prices.
type Latest struct {
	c *cache.Cache
}

// NewLatest creates a store whose entries live for ttl. Zero keeps them
// until overwritten.
func NewLatest(ttl time.Duration) *Latest {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &Latest{c: cache.New(ttl, time.Minute)}
}

// Apply records every member of u. Symbols missing from u keep their
// previous entry.
func (l *Latest) Apply(u models.Update) {
	for _, q := range u.Quotes {
		l.c.SetDefault(quotePrefix+key(q.Symbol), q)
	}
	for _, s := range u.Sparks {
		l.c.SetDefault(sparkPrefix+key(s.Symbol), s)
	}
	if u.Chart != nil {
		l.c.SetDefault(chartKey(u.Chart.Symbol, u.Chart.Range), *u.Chart)
	}
	l.c.Set(updatedKey, u.At, cache.NoExpiration)
}

func (l *Latest) Quote(symbol string) (models.Quote, bool) {
	v, ok := l.c.Get(quotePrefix + key(symbol))
	if !ok {
		return models.Quote{}, false
	}
	return v.(models.Quote), true
}

// Quotes returns every live quote ordered by symbol.
func (l *Latest) Quotes() []models.Quote {
	var out []models.Quote
	for k, item := range l.c.Items() {
		if strings.HasPrefix(k, quotePrefix) {
			out = append(out, item.Object.(models.Quote))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

func (l *Latest) Spark(symbol string) (models.SparkResult, bool) {
	v, ok := l.c.Get(sparkPrefix + key(symbol))
	if !ok {
		return models.SparkResult{}, false
	}
	return v.(models.SparkResult), true
}

func (l *Latest) Chart(symbol string, r models.TimeRange) (models.ChartUpdate, bool) {
	v, ok := l.c.Get(chartKey(symbol, r))
	if !ok {
		return models.ChartUpdate{}, false
	}
	return v.(models.ChartUpdate), true
}

// UpdatedAt is the time of the last applied update, zero if none.
func (l *Latest) UpdatedAt() time.Time {
	v, ok := l.c.Get(updatedKey)
	if !ok {
		return time.Time{}
	}
	return v.(time.Time)
}

func (l *Latest) Flush() {
	l.c.Flush()
}

func chartKey(symbol string, r models.TimeRange) string {
	return chartPrefix + key(symbol) + ":" + r.String()
}

func key(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
