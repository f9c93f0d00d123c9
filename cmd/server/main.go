package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kjannette/stocks-backend/internal/api"
	"github.com/kjannette/stocks-backend/internal/config"
	"github.com/kjannette/stocks-backend/internal/db"
	"github.com/kjannette/stocks-backend/internal/finance"
	"github.com/kjannette/stocks-backend/internal/models"
	"github.com/kjannette/stocks-backend/internal/notifications"
	"github.com/kjannette/stocks-backend/internal/repository"
	"github.com/kjannette/stocks-backend/internal/scheduler"
	"github.com/kjannette/stocks-backend/internal/session"
	"github.com/kjannette/stocks-backend/internal/sink"
	"github.com/kjannette/stocks-backend/internal/store"
)

// Per-update budget for the database and broker consumers.
const consumerTimeout = 10 * time.Second

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}
	zerolog.SetGlobalLevel(config.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(log.Logger); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	cfg.Print(log.Logger)

	portfolio, err := cfg.LoadPortfolio()
	if err != nil {
		log.Fatal().Err(err).Msg("portfolio load error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	var (
		pool   *pgxpool.Pool
		quotes *repository.QuoteRepo
	)
	if cfg.DBEnabled {
		log.Info().Str("host", cfg.DBHost).Int("port", cfg.DBPort).Str("db", cfg.DBName).Msg("connecting to database")
		pool, err = db.Connect(ctx, cfg.DSN())
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer func() {
			pool.Close()
			log.Info().Msg("database pool closed")
		}()
		if err := db.Check(ctx, pool, log.Logger); err != nil {
			log.Fatal().Err(err).Msg("database test query failed")
		}
		quotes = repository.NewQuoteRepo(pool)
		if err := quotes.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("schema setup failed")
		}
	}

	// Broker
	var broker *sink.Kafka
	if cfg.KafkaBrokerURL != "" {
		if err := sink.EnsureTopic(cfg.KafkaBrokerURL, cfg.KafkaTopic); err != nil {
			log.Warn().Err(err).Str("topic", cfg.KafkaTopic).Msg("could not ensure kafka topic")
		}
		broker = sink.NewKafka(cfg.KafkaBrokerURL, cfg.KafkaTopic, log.Logger)
		defer func() {
			if err := broker.Close(); err != nil {
				log.Error().Err(err).Msg("kafka writer close")
			}
		}()
	}

	// Upstream client
	sess := session.New(session.Options{
		LandingURL:     cfg.YahooLandingURL,
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Logger:         log.Logger,
	})
	client := finance.New(finance.Options{
		BaseURL:           cfg.YahooBaseURL,
		UserAgent:         cfg.UserAgent,
		AcceptLanguage:    cfg.AcceptLanguage,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Session:           sess,
		Logger:            log.Logger,
	})

	notify := notifications.NewSender(cfg.WebhookURL, cfg.AppName, log.Logger)
	latest := store.NewLatest(10 * cfg.PollInterval())

	poller := scheduler.NewPoller(client, scheduler.PollerConfig{
		Interval: cfg.PollInterval(),
		OnUpdate: func(u models.Update) {
			latest.Apply(u)
			publish(quotes, broker, u)
		},
		OnStateChange: func(s scheduler.State) {
			notify.StateChanged(context.Background(), s)
		},
		Logger: log.Logger,
	})
	if cfg.DetailSymbol != "" {
		r, _ := models.ParseTimeRange(cfg.DetailRange)
		if err := poller.WatchDetail(cfg.DetailSymbol, r); err != nil {
			log.Fatal().Err(err).Msg("invalid detail stock")
		}
	}

	// 1. API server
	srv := api.NewServer(client, poller, latest, api.Options{
		Port:       cfg.APIPort,
		APIKey:     cfg.APIKey,
		CORSOrigin: cfg.CORSAllowOrigin,
		Pool:       pool,
		Snapshots:  quotes,
		Logger:     log.Logger,
	})
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("API server error")
		}
	}()

	// 2. Poller
	if err := poller.Watch(portfolio); err != nil {
		log.Fatal().Err(err).Msg("poller start failed")
	}

	log.Info().Msg("all services started")

	<-ctx.Done()
	log.Info().Msg("shutting down gracefully")

	poller.Stop()
	select {
	case <-poller.Done():
	case <-time.After(consumerTimeout):
		log.Warn().Msg("poller did not stop in time")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API shutdown error")
	}
	log.Info().Msg("shutdown complete")
}

// publish hands one update to the optional persistent consumers. It runs on
// the poller goroutine, so each consumer gets a bounded budget.
func publish(quotes *repository.QuoteRepo, broker *sink.Kafka, u models.Update) {
	if quotes == nil && broker == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), consumerTimeout)
	defer cancel()

	if quotes != nil {
		if err := quotes.SaveAll(ctx, u.Quotes); err != nil {
			log.Error().Err(err).Msg("save quote snapshots")
		}
	}
	if broker != nil {
		if err := broker.Publish(ctx, u); err != nil {
			log.Error().Err(err).Msg("publish update")
		}
	}
}
