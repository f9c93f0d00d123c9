package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kjannette/stocks-backend/internal/interval"
	"github.com/kjannette/stocks-backend/internal/models"
)

// ErrStopped is returned when watching through a poller that was stopped.
var ErrStopped = errors.New("poller stopped")

// Source is the subset of the finance client the poller drives.
type Source interface {
	GetQuotes(ctx context.Context, symbols []string) ([]models.Quote, error)
	GetDefaultSparks(ctx context.Context, symbols []string) ([]models.SparkResult, error)
	GetChart(ctx context.Context, q models.Quote, r models.TimeRange) (models.Chart, interval.Window, error)
	GetChartForSymbol(ctx context.Context, symbol string, r models.TimeRange) (models.Chart, interval.Window, error)
}

type State int

const (
	Idle State = iota
	Running
	Cancelling
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Cancelling:
		return "cancelling"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type PollerConfig struct {
	Interval time.Duration // default 15s
	// OnUpdate receives each tick's results on the poller goroutine.
	OnUpdate func(models.Update)
	// OnStateChange observes lifecycle transitions.
	OnStateChange func(State)
	Now           func() time.Time
	Logger        zerolog.Logger
}

type detail struct {
	symbol string
	rng    models.TimeRange
}

// Poller periodically fetches quotes, sparks and an optional detail chart
// for a watched portfolio. Fetches within a tick run one after another.
type Poller struct {
	src Source
	cfg PollerConfig
	log zerolog.Logger

	mu        sync.Mutex
	state     State
	portfolio models.Portfolio
	detail    *detail
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewPoller(src Source, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Poller{
		src:  src,
		cfg:  cfg,
		log:  cfg.Logger.With().Str("component", "poller").Logger(),
		done: make(chan struct{}),
	}
}

// Watch sets the watched portfolio, starting the loop on first use.
// Calling it while running only swaps the portfolio.
func (p *Poller) Watch(portfolio models.Portfolio) error {
	p.mu.Lock()
	switch p.state {
	case Cancelling, Stopped:
		p.mu.Unlock()
		return ErrStopped
	case Running:
		p.portfolio = portfolio
		p.mu.Unlock()
		p.log.Info().Strs("symbols", portfolio.Symbols()).Msg("portfolio updated")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.portfolio = portfolio
	p.cancel = cancel
	p.state = Running
	p.mu.Unlock()

	p.log.Info().
		Strs("symbols", portfolio.Symbols()).
		Dur("interval", p.cfg.Interval).
		Msg("started")
	p.notify(Running)

	go p.run(ctx)
	return nil
}

// WatchDetail selects the stock whose chart is refreshed each tick when
// its range is one day, year to date or max.
func (p *Poller) WatchDetail(symbol string, r models.TimeRange) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return fmt.Errorf("%w: empty symbol", models.ErrInvalidArgument)
	}
	if !r.Valid() {
		return fmt.Errorf("%w: time range %d", models.ErrInvalidArgument, int(r))
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = &detail{symbol: symbol, rng: r}
	return nil
}

func (p *Poller) ClearDetail() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.detail = nil
}

// Detail returns the watched detail stock, if any.
func (p *Poller) Detail() (string, models.TimeRange, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.detail == nil {
		return "", 0, false
	}
	return p.detail.symbol, p.detail.rng, true
}

// Stop cancels the loop without waiting for it; use Done to wait.
func (p *Poller) Stop() {
	p.mu.Lock()
	switch p.state {
	case Idle:
		p.state = Stopped
		p.mu.Unlock()
		p.notify(Stopped)
		close(p.done)
		return
	case Running:
		p.state = Cancelling
		cancel := p.cancel
		p.mu.Unlock()
		p.log.Info().Msg("stopping")
		p.notify(Cancelling)
		cancel()
		return
	}
	p.mu.Unlock()
}

// Done is closed once the poller has reached Stopped.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Poller) run(ctx context.Context) {
	defer func() {
		p.mu.Lock()
		p.state = Stopped
		p.mu.Unlock()
		p.log.Info().Msg("stopped")
		p.notify(Stopped)
		close(p.done)
	}()

	for {
		u, err := p.Poll(ctx)
		if err != nil {
			return
		}
		if !u.Empty() && p.cfg.OnUpdate != nil {
			p.cfg.OnUpdate(u)
		}

		t := time.NewTimer(p.cfg.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// Poll runs one tick: quotes, then sparks, then the detail chart. A failed
// fetch only leaves its part of the update empty. The error is non-nil
// only when ctx ends.
func (p *Poller) Poll(ctx context.Context) (models.Update, error) {
	p.mu.Lock()
	symbols := p.portfolio.Symbols()
	var d *detail
	if p.detail != nil {
		dd := *p.detail
		d = &dd
	}
	p.mu.Unlock()

	u := models.Update{At: p.cfg.Now()}
	if err := ctx.Err(); err != nil {
		return u, err
	}

	if len(symbols) > 0 {
		quotes, err := p.src.GetQuotes(ctx, symbols)
		if p.failed(ctx, err, "quotes") {
			return u, ctx.Err()
		}
		u.Quotes = quotes

		sparks, err := p.src.GetDefaultSparks(ctx, symbols)
		if p.failed(ctx, err, "sparks") {
			return u, ctx.Err()
		}
		u.Sparks = sparks
	}

	if d != nil && Refreshable(d.rng) {
		var (
			c   models.Chart
			win interval.Window
			err error
		)
		if q, ok := findQuote(u.Quotes, d.symbol); ok {
			c, win, err = p.src.GetChart(ctx, q, d.rng)
		} else {
			c, win, err = p.src.GetChartForSymbol(ctx, d.symbol, d.rng)
		}
		if p.failed(ctx, err, "chart") {
			return u, ctx.Err()
		}
		if err == nil {
			u.Chart = &models.ChartUpdate{
				Symbol:   d.symbol,
				Range:    d.rng,
				Interval: win.Interval,
				Start:    win.Start,
				End:      win.End,
				Chart:    c,
			}
		}
	}
	return u, nil
}

// failed logs a fetch error unless it came from cancellation, and reports
// whether the tick should be abandoned.
func (p *Poller) failed(ctx context.Context, err error, kind string) bool {
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		p.log.Warn().Err(err).Str("kind", kind).Msg("fetch failed, skipping")
	}
	return false
}

func (p *Poller) notify(s State) {
	if p.cfg.OnStateChange != nil {
		p.cfg.OnStateChange(s)
	}
}

// Refreshable reports whether a detail chart over r is worth refetching
// every tick.
func Refreshable(r models.TimeRange) bool {
	switch r {
	case models.RangeOneDay, models.RangeYearToDate, models.RangeMax:
		return true
	}
	return false
}

func findQuote(quotes []models.Quote, symbol string) (models.Quote, bool) {
	for _, q := range quotes {
		if strings.EqualFold(q.Symbol, symbol) {
			return q, true
		}
	}
	return models.Quote{}, false
}
