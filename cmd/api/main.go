package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"property_submission/internal/adapters/events"
	server "property_submission/internal/adapters/http_server"
	"property_submission/internal/adapters/observability"
	redisad "property_submission/internal/adapters/redis"
	"property_submission/internal/app"
	"property_submission/internal/domain"
	"property_submission/internal/payload"
	"property_submission/internal/shared"
	"property_submission/internal/storage/memory"
	mysqlrepo "property_submission/internal/storage/mysql"
	"property_submission/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel, "listing-api")

	// storage
	var repo domain.PropertyRepository
	if cfg.MySQLDSN != "" {
		db, err := mysqlrepo.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("database connection failed")
		}
		defer db.Close()
		log.Info().Msg("database connection ok")
		repo = mysqlrepo.New(db)
	} else {
		log.Warn().Msg("MYSQL_DSN is empty; records are kept in memory")
		repo = memory.New()
	}

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := rc.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable; cache disabled")
		} else {
			cache = rc
		}
	}

	var pub domain.EventPublisher = events.Discard{}
	if cfg.RabbitURL != "" {
		p, err := events.Dial(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("rabbitmq setup failed")
		}
		defer p.Close()
		pub = p
	}

	contract, err := payload.NewContract()
	if err != nil {
		log.Fatal().Err(err).Msg("payload contract failed to compile")
	}
	svc := app.NewPropertyService(repo, cache, pub, contract, validation.Default(), cfg.CacheTTL)

	// http
	srv := server.New(cfg.CORSOrigins)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{S: svc})

	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
