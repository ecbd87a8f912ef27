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

	"github.com/medidesk/clinic-api/internal/cache"
	"github.com/medidesk/clinic-api/internal/config"
	"github.com/medidesk/clinic-api/internal/email"
	"github.com/medidesk/clinic-api/internal/handler"
	accountHandler "github.com/medidesk/clinic-api/internal/handler/account"
	historyHandler "github.com/medidesk/clinic-api/internal/handler/history"
	patientHandler "github.com/medidesk/clinic-api/internal/handler/patient"
	visitHandler "github.com/medidesk/clinic-api/internal/handler/visit"
	"github.com/medidesk/clinic-api/internal/middleware"
	"github.com/medidesk/clinic-api/internal/repository/postgres"
	"github.com/medidesk/clinic-api/internal/router"
	accountService "github.com/medidesk/clinic-api/internal/service/account"
	readerService "github.com/medidesk/clinic-api/internal/service/reader"
	registryService "github.com/medidesk/clinic-api/internal/service/registry"
	visitService "github.com/medidesk/clinic-api/internal/service/visit"
	"github.com/medidesk/clinic-api/pkg/auth"
	"github.com/medidesk/clinic-api/pkg/logger"
	"github.com/medidesk/clinic-api/pkg/messaging/redis"
	"github.com/medidesk/clinic-api/pkg/metrics"
	"github.com/medidesk/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	accountRepo := postgres.NewAccountRepository(db)
	tokenRepo := postgres.NewTokenRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	// Shared infrastructure
	m := metrics.NewMetrics("clinic")
	dashCache := cache.NewDashboardCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval)
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	hasher := security.NewBcryptHasher(12)
	emailSvc := email.NewSMTPService(cfg.SMTP)

	broker, err := redis.NewRedisBroker(redis.Config{
		URL:          cfg.Redis.URL,
		MaxRetries:   3,
		RetryBackoff: 100 * time.Millisecond,
		PoolSize:     10,
	}, appLogger.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Services
	accountSvc := accountService.NewService(accountRepo, tokenRepo, jwtSvc, hasher, emailSvc, broker, m, appLogger)
	registrySvc := registryService.NewService(patientRepo, dashCache, m)
	visitSvc := visitService.NewService(patientRepo, prescriptionRepo, historyRepo, dashCache, m, appLogger)
	readerSvc := readerService.NewService(historyRepo, prescriptionRepo, dashCache)

	// Handlers
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, tokenRepo)
	acctHandler := accountHandler.NewHandler(accountSvc)
	patHandler := patientHandler.NewHandler(registrySvc)
	visHandler := visitHandler.NewHandler(visitSvc)
	histHandler := historyHandler.NewHandler(readerSvc)
	healthHandler := handler.NewHealthHandler(db)

	r := router.NewRouter(cfg, m, authMiddleware, acctHandler, patHandler, visHandler, histHandler, healthHandler)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
