package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tickethub/reservation/internal/app"
	"github.com/tickethub/reservation/internal/clock"
	"github.com/tickethub/reservation/internal/config"
	"github.com/tickethub/reservation/internal/pubsub"
	"github.com/tickethub/reservation/internal/storage/postgres"
	redisstore "github.com/tickethub/reservation/internal/storage/redis"
	transporthttp "github.com/tickethub/reservation/internal/transport/http"
	"github.com/tickethub/reservation/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config.LoadEnvFile(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Fatal("connect to db")
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		logger.WithError(err).Fatal("db ping")
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		logger.WithError(err).Fatal("apply migrations")
	}

	redisClient := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()
	if err := redisClient.Ping(startupCtx).Err(); err != nil {
		logger.WithError(err).Fatal("redis ping")
	}

	var publisher pubsub.Publisher = pubsub.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub := pubsub.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer func() {
			if err := kafkaPub.Close(); err != nil {
				logger.WithError(err).Warn("close kafka publisher")
			}
		}()
		publisher = kafkaPub
		logger.WithField("topic", cfg.KafkaTopic).Info("kafka publisher enabled")
	}

	clk := clock.NewSystem()
	holdStore := redisstore.NewHoldStore(redisClient)
	classLocker := redisstore.NewClassLocker(redisClient, cfg.LockTTL)
	ledger := postgres.NewLedgerRepository(pool)

	engine := app.NewEngine(
		holdStore,
		ledger,
		classLocker,
		clk,
		logger,
		publisher,
		app.WithHoldTTL(cfg.HoldTTLDefault),
		app.WithHoldTTLBounds(cfg.HoldTTLMin, cfg.HoldTTLMax),
		app.WithLockTimeout(cfg.LockTimeout),
		app.WithConfirmedRetention(cfg.ConfirmedRetention),
	)
	adminSvc := app.NewAdminService(postgres.NewAdminRepository(pool), clk)

	sweeper := app.NewSweeper(holdStore, clk, logger, publisher, cfg.SweepInterval)
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()
	go sweeper.Run(sweepCtx)

	router := transporthttp.NewRouter(engine, adminSvc)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodPatch},
		AllowedHeaders: []string{"Content-Type"},
	})
	handler := transporthttp.RequestLogger(corsHandler.Handler(router), logger)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	logger.WithField("port", cfg.Port).Info("api listening")

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("server error")
		}
	case <-stopCtx.Done():
		logger.Info("shutdown signal received, stopping server")
	}

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("server shutdown error")
	}
	logger.Info("server stopped")
}
