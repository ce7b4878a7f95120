package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/embassygq/consular-api/config"
	"github.com/embassygq/consular-api/internal/email"
	internalworker "github.com/embassygq/consular-api/internal/worker"
	"github.com/embassygq/consular-api/internal/repository/postgres"
	"github.com/embassygq/consular-api/pkg/logger"
	"github.com/embassygq/consular-api/pkg/messaging/redis"
	"github.com/embassygq/consular-api/pkg/metrics"
	"github.com/embassygq/consular-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadWorkerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{
		Level:      logger.InfoLevel,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
	})

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		appLogger.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), appLogger.ZL())
	if err != nil {
		appLogger.Fatal(err, "failed to create redis broker")
	}
	defer broker.Close()

	outboxRepo := postgres.NewOutboxRepository(db)
	citizenRepo := postgres.NewCitizenRepository(db)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		cfg.Outbox.ToWorkerConfig(),
		appLogger,
		metrics.New("consular_outbox"),
	)

	cleanup := internalworker.NewOutboxCleanupWorker(
		outboxRepo,
		cfg.Outbox.RetentionDays,
		time.Hour,
		appLogger,
	)

	dispatcher := internalworker.NewEmailDispatcher(
		broker,
		citizenRepo,
		email.NewService(cfg.Email.ToMailerConfig()),
		appLogger,
	)

	startHealthServer(cfg.Port, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		appLogger.Info("shutting down")
		cancel()
	}()

	go cleanup.Start(ctx)
	go func() {
		if err := dispatcher.Start(ctx); err != nil {
			appLogger.Error(err, "email dispatcher stopped")
		}
	}()

	processor.Start(ctx)
}

func startHealthServer(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.Fatal(err, "health check server failed")
		}
	}()
}
