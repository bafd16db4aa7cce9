package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/emedica/emedica-api/internal/config"
	v1 "github.com/emedica/emedica-api/internal/handler/v1"
	"github.com/emedica/emedica-api/internal/repository/postgres"
	"github.com/emedica/emedica-api/internal/repository/redisstore"
	"github.com/emedica/emedica-api/internal/service"
	"github.com/emedica/emedica-api/pkg/auth"
	"github.com/emedica/emedica-api/pkg/database"
	"github.com/emedica/emedica-api/pkg/logger"
	"github.com/emedica/emedica-api/pkg/metrics"
	"github.com/emedica/emedica-api/pkg/tracer"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting emedica-api",
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		tp, err := tracer.Init(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("initializing tracer: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	collector := metrics.NewCollector(cfg.App.Name)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := database.Migrate(db, log); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if cfg.App.SeedDemoData {
		if err := postgres.SeedDemoData(ctx, db, log); err != nil {
			return fmt.Errorf("seeding demo data: %w", err)
		}
	}

	store := redisstore.New(cfg.Redis)
	defer store.Close()
	if err := store.Ping(ctx); err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}

	userRepo := postgres.NewDirectoryRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	recordRepo := postgres.NewRecordRepository(db)
	prescriptionRepo := postgres.NewPrescriptionRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	auditSvc := service.NewAuditService(auditRepo, collector, log)
	defer auditSvc.Shutdown()

	jwtManager := auth.NewJWTManager(cfg.JWT)
	authSvc := service.NewAuthService(userRepo, store, jwtManager, cfg.Session.TTL, auditSvc, collector, log)

	// Redis expires session keys without any callback, so the active
	// session gauge is periodically reset from a keyspace count.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := store.CountSessions(ctx)
				if err != nil {
					log.Warn("session gauge reconcile failed", zap.Error(err))
					continue
				}
				collector.SessionsActive.Set(float64(n))
			}
		}
	}()
	otpSvc := service.NewOTPService(userRepo, store, authSvc, cfg.OTP, log)
	directorySvc := service.NewDirectoryService(userRepo, auditSvc, log)
	appointmentSvc := service.NewAppointmentService(appointmentRepo, userRepo, auditSvc, log)
	recordSvc := service.NewRecordService(recordRepo, userRepo, auditSvc, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptionRepo, userRepo, auditSvc, log)
	analyticsSvc := service.NewAnalyticsService(userRepo, appointmentRepo, prescriptionRepo)

	router := v1.NewRouter(v1.RouterDeps{
		Config:          cfg,
		Logger:          log,
		Collector:       collector,
		JWTManager:      jwtManager,
		AuthSvc:         authSvc,
		AuditSvc:        auditSvc,
		OTPSvc:          otpSvc,
		DirectorySvc:    directorySvc,
		AppointmentSvc:  appointmentSvc,
		RecordSvc:       recordSvc,
		PrescriptionSvc: prescriptionSvc,
		AnalyticsSvc:    analyticsSvc,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}
