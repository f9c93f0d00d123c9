package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/kjannette/stocks-backend/internal/finance"
	"github.com/kjannette/stocks-backend/internal/interval"
	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/repository"
	"github.com/kjannette/stocks-backend/internal/scheduler"
	"github.com/kjannette/stocks-backend/internal/store"
)

var dateRegexp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// MarketData is the upstream access the on-demand routes need.
type MarketData interface {
	GetChartForSymbol(ctx context.Context, symbol string, r models.TimeRange) (models.Chart, interval.Window, error)
	GetHistoricTradeData(ctx context.Context, symbol string, start, end time.Time, iv models.TimeInterval, includeAdjustedClose bool) ([]models.HistoricTradeData, error)
	HasCrumb() bool
}

// Watcher is the poller surface the API drives.
type Watcher interface {
	State() scheduler.State
	WatchDetail(symbol string, r models.TimeRange) error
	Detail() (string, models.TimeRange, bool)
}

type Options struct {
	Port       int
	APIKey     string
	CORSOrigin string
	// Pool and Snapshots are nil when the database is disabled.
	Pool      *pgxpool.Pool
	Snapshots *repository.QuoteRepo
	Now       func() time.Time
	Logger    zerolog.Logger
}

type Server struct {
	market     MarketData
	poller     Watcher
	latest     *store.Latest
	pool       *pgxpool.Pool
	snapshots  *repository.QuoteRepo
	now        func() time.Time
	log        zerolog.Logger
	httpServer *http.Server
	apiKey     string
}

func NewServer(market MarketData, poller Watcher, latest *store.Latest, opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &Server{
		market:    market,
		poller:    poller,
		latest:    latest,
		pool:      opts.Pool,
		snapshots: opts.Snapshots,
		now:       opts.Now,
		log:       opts.Logger.With().Str("component", "api").Logger(),
		apiKey:    opts.APIKey,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", opts.Port),
		// CORS wraps auth so preflights never need a key.
		Handler:      corsMiddleware(s.authMiddleware(s.routes()), opts.CORSOrigin),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Latest published data
	mux.HandleFunc("GET /v1/quotes", s.handleQuotes)
	mux.HandleFunc("GET /v1/quotes/{symbol}", s.handleQuote)
	mux.HandleFunc("GET /v1/sparks/{symbol}", s.handleSpark)
	mux.HandleFunc("GET /v1/snapshots", s.handleSnapshots)

	// Charts and history
	mux.HandleFunc("GET /v1/chart/{symbol}", s.handleChart)
	mux.HandleFunc("GET /v1/history/{symbol}", s.handleHistory)
	mux.HandleFunc("PUT /v1/detail/{symbol}", s.handleSetDetail)

	// Health check (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// Handler exposes the full middleware chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.log.Info().
		Str("addr", s.httpServer.Addr).
		Bool("auth", s.apiKey != "").
		Msg("REST API server started")
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func validateDate(date string) bool {
	if !dateRegexp.MatchString(date) {
		return false
	}
	_, err := time.Parse("2006-01-02", date)
	return err == nil
}

// parseRange reads ?range=, falling back to def when absent.
func parseRange(r *http.Request, def models.TimeRange) (models.TimeRange, error) {
	v := r.URL.Query().Get("range")
	if v == "" {
		return def, nil
	}
	return models.ParseTimeRange(v)
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeUpstreamError maps client errors onto HTTP statuses.
func (s *Server) writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var fe *finance.Error
	switch {
	case errors.Is(err, models.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "request cancelled")
	case errors.As(err, &fe) && fe.Kind == finance.KindProvider && fe.Code == "Not Found":
		writeError(w, http.StatusNotFound, fe.Description)
	case errors.As(err, &fe) && fe.Kind == finance.KindProvider:
		s.log.Warn().Err(err).Str("path", r.URL.Path).Msg("provider error")
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("upstream request failed")
		writeError(w, http.StatusBadGateway, "upstream request failed")
	}
}
