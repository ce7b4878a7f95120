package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/embassygq/consular-api/config"
	appointmenth "github.com/embassygq/consular-api/internal/handler/appointment"
	audith "github.com/embassygq/consular-api/internal/handler/audit"
	authh "github.com/embassygq/consular-api/internal/handler/auth"
	citizenh "github.com/embassygq/consular-api/internal/handler/citizen"
	documenth "github.com/embassygq/consular-api/internal/handler/document"
	healthh "github.com/embassygq/consular-api/internal/handler/health"
	notificationh "github.com/embassygq/consular-api/internal/handler/notification"
	staffh "github.com/embassygq/consular-api/internal/handler/staff"
	visah "github.com/embassygq/consular-api/internal/handler/visa"
	"github.com/embassygq/consular-api/internal/middleware"
	"github.com/embassygq/consular-api/internal/repository/postgres"
	"github.com/embassygq/consular-api/internal/router"
	appointmentsvc "github.com/embassygq/consular-api/internal/service/appointment"
	auditsvc "github.com/embassygq/consular-api/internal/service/audit"
	authsvc "github.com/embassygq/consular-api/internal/service/auth"
	citizensvc "github.com/embassygq/consular-api/internal/service/citizen"
	documentsvc "github.com/embassygq/consular-api/internal/service/document"
	notificationsvc "github.com/embassygq/consular-api/internal/service/notification"
	staffsvc "github.com/embassygq/consular-api/internal/service/staff"
	visasvc "github.com/embassygq/consular-api/internal/service/visa"
	"github.com/embassygq/consular-api/pkg/auth"
	"github.com/embassygq/consular-api/pkg/blob"
	"github.com/embassygq/consular-api/pkg/logger"
	"github.com/embassygq/consular-api/pkg/metrics"
	"github.com/embassygq/consular-api/pkg/refnum"
	"github.com/embassygq/consular-api/pkg/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := newLogger(cfg.Logger)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("invalid redis url")
		}
		redisClient = redis.NewClient(opts)
		defer redisClient.Close()
	}

	store, err := blob.NewFSStore(cfg.Blob.Root)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize document store")
	}

	appointmentRepo := postgres.NewAppointmentRepository(db)
	citizenRepo := postgres.NewCitizenRepository(db)
	visaRepo := postgres.NewVisaRepository(db)
	documentRepo := postgres.NewDocumentRepository(db)
	staffRepo := postgres.NewStaffRepository(db)
	userRepo := postgres.NewUserRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	notificationRepo := postgres.NewNotificationRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(0)
	refs := refnum.New()
	appMetrics := metrics.New("consular")

	auditor := auditsvc.NewService(auditRepo)
	authSvc := authsvc.NewService(userRepo, tokenRepo, jwtSvc, hasher, auditor)
	appointmentSvc := appointmentsvc.NewService(appointmentRepo, auditor, refs, appMetrics, appLogger, appointmentsvc.Scheduling{
		OpenHour:               cfg.Scheduling.OpenHour,
		CloseHour:              cfg.Scheduling.CloseHour,
		DefaultDurationMinutes: cfg.Scheduling.DefaultDurationMinutes,
	})
	citizenSvc := citizensvc.NewService(citizenRepo, auditor)
	visaSvc := visasvc.NewService(visaRepo, auditor, refs)
	documentSvc := documentsvc.NewService(documentRepo, store, auditor, refs)
	staffSvc := staffsvc.NewService(staffRepo, auditor, refs)
	notificationSvc := notificationsvc.NewService(notificationRepo)

	authMiddleware := middleware.NewAuthMiddleware(jwtSvc)

	routerCfg := router.DefaultConfig()
	if cfg.RateLimit.RequestsPerSecond > 0 {
		routerCfg.RateLimiter = middleware.RateLimiterConfig{
			Rate:  rate.Limit(cfg.RateLimit.RequestsPerSecond),
			Burst: cfg.RateLimit.Burst,
		}
	}

	r := router.New(authMiddleware, router.Handlers{
		Health:       healthh.NewHandler(db, redisClient),
		Auth:         authh.NewHandler(authSvc),
		Appointment:  appointmenth.NewHandler(appointmentSvc),
		Citizen:      citizenh.NewHandler(citizenSvc),
		Visa:         visah.NewHandler(visaSvc),
		Document:     documenth.NewHandler(documentSvc),
		Staff:        staffh.NewHandler(staffSvc),
		Notification: notificationh.NewHandler(notificationSvc),
		Audit:        audith.NewHandler(auditor),
	}, routerCfg)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		appLogger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	appLogger.Info("server exited")
}

func newLogger(cfg config.LoggerConfig) *logger.Logger {
	level := logger.InfoLevel
	if parsed, err := logger.ParseLevel(cfg.Level); err == nil {
		level = parsed
	}
	return logger.New(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Output:     os.Stdout,
		Pretty:     cfg.Pretty,
	})
}
