package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/timeutil"
)

// Schema creates the snapshot table. EnsureSchema runs it on startup.
const Schema = `CREATE TABLE IF NOT EXISTS quote_snapshots (
	symbol          TEXT PRIMARY KEY,
	market_time     TIMESTAMPTZ NOT NULL,
	price           DOUBLE PRECISION NOT NULL,
	change          DOUBLE PRECISION NOT NULL,
	change_percent  DOUBLE PRECISION NOT NULL,
	volume          BIGINT NOT NULL,
	currency        TEXT NOT NULL DEFAULT '',
	exchange        TEXT NOT NULL DEFAULT '',
	trading_day     DATE NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const upsertQuote = `INSERT INTO quote_snapshots
	(symbol, market_time, price, change, change_percent, volume, currency, exchange, trading_day, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
	ON CONFLICT (symbol) DO UPDATE SET
		market_time = EXCLUDED.market_time,
		price = EXCLUDED.price,
		change = EXCLUDED.change,
		change_percent = EXCLUDED.change_percent,
		volume = EXCLUDED.volume,
		currency = EXCLUDED.currency,
		exchange = EXCLUDED.exchange,
		trading_day = EXCLUDED.trading_day,
		updated_at = NOW()`

const selectColumns = `symbol, market_time, price, change, change_percent, volume, currency, exchange, trading_day, updated_at`

type QuoteRepo struct {
	pool *pgxpool.Pool
}

func NewQuoteRepo(pool *pgxpool.Pool) *QuoteRepo {
	return &QuoteRepo{pool: pool}
}

func (r *QuoteRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create quote_snapshots: %w", err)
	}
	return nil
}

// SaveAll overwrites the snapshot of every quote in one batch.
func (r *QuoteRepo) SaveAll(ctx context.Context, quotes []models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, q := range quotes {
		s := Snapshot(q)
		batch.Queue(upsertQuote,
			s.Symbol, s.MarketTime, s.Price, s.Change, s.ChangePercent,
			s.Volume, s.Currency, s.Exchange, s.TradingDay,
		)
	}
	if err := r.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %d quotes: %w", len(quotes), err)
	}
	return nil
}

// Get returns nil when symbol has no snapshot.
func (r *QuoteRepo) Get(ctx context.Context, symbol string) (*models.QuoteSnapshot, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM quote_snapshots WHERE symbol = $1`,
		symbol,
	)
	s, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

func (r *QuoteRepo) List(ctx context.Context) ([]models.QuoteSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM quote_snapshots ORDER BY symbol ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QuoteSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *QuoteRepo) Delete(ctx context.Context, symbol string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quote_snapshots WHERE symbol = $1`, symbol)
	return err
}

// Snapshot maps a quote onto its stored row. The trading day is the
// exchange-local date of the market time.
func Snapshot(q models.Quote) models.QuoteSnapshot {
	mt := q.MarketTime()
	return models.QuoteSnapshot{
		Symbol:        q.Symbol,
		MarketTime:    mt,
		Price:         q.RegularMarketPrice,
		Change:        q.RegularMarketChange,
		ChangePercent: q.RegularMarketChangePercent,
		Volume:        q.RegularMarketVolume,
		Currency:      q.Currency,
		Exchange:      q.Exchange,
		TradingDay:    timeutil.TradingDay(mt),
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scannable) (*models.QuoteSnapshot, error) {
	var s models.QuoteSnapshot
	var td time.Time
	err := row.Scan(&s.Symbol, &s.MarketTime, &s.Price, &s.Change, &s.ChangePercent,
		&s.Volume, &s.Currency, &s.Exchange, &td, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.TradingDay = td.Format("2006-01-02")
	return &s, nil
}
