package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/pawnline/loanengine/internal/application/usecase"
	"github.com/pawnline/loanengine/internal/domain/service"
	"github.com/pawnline/loanengine/internal/infrastructure/config"
	"github.com/pawnline/loanengine/internal/infrastructure/kafka"
	pgRepo "github.com/pawnline/loanengine/internal/infrastructure/postgres"
	"github.com/pawnline/loanengine/internal/infrastructure/scheduler"
	"github.com/pawnline/loanengine/internal/infrastructure/telemetry"
	grpcPresentation "github.com/pawnline/loanengine/internal/presentation/grpc"
	"github.com/pawnline/loanengine/internal/presentation/rest"
	pkgkafka "github.com/pawnline/loanengine/pkg/kafka"
	"github.com/pawnline/loanengine/pkg/observability"
	pkgpostgres "github.com/pawnline/loanengine/pkg/postgres"
)

func main() {
	if err := run(); err != nil {
		slog.Error("loanengine exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.ServiceName,
	})

	logger.Info("starting loanengine",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"schedule_enabled", cfg.Schedule.Enabled,
	)

	metrics, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	defer func() { _ = metrics.Provider.Shutdown(context.Background()) }()

	jobMetrics, err := telemetry.NewJobMetrics(metrics.Meter)
	if err != nil {
		return err
	}

	// Database connection.
	dbCfg := pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		MaxConns: cfg.DB.MaxConns,
	}
	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := pkgpostgres.NewPool(dbCtx, dbCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()
	logger.Info("connected to database")

	if err := pkgpostgres.RunMigrations(dbCfg.DSN(), pgRepo.Migrations, pgRepo.MigrationsDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Infrastructure adapters.
	loanRepo := pgRepo.NewLoanRepo(pool)
	charges := pgRepo.NewInterestChargeRepo(pool)
	payments := pgRepo.NewPaymentRepo(pool)
	installments := pgRepo.NewInstallmentRepo(pool)
	customers := pgRepo.NewCustomerRepo(pool)
	items := pgRepo.NewItemRepo(pool)
	jobRuns := pgRepo.NewJobRunRepo(pool)

	kafkaCfg := pkgkafka.Config{
		Brokers:       cfg.Kafka.Brokers,
		ConsumerGroup: cfg.Kafka.ConsumerGroup,
		TLS:           cfg.Kafka.TLS,
		SASLEnabled:   cfg.Kafka.SASLUsername != "",
		SASLMechanism: cfg.Kafka.SASLMechanism,
		SASLUsername:  cfg.Kafka.SASLUsername,
		SASLPassword:  cfg.Kafka.SASLPassword,
		MaxAttempts:   cfg.Kafka.MaxAttempts,
		RetryBackoff:  cfg.Kafka.RetryBackoff,
	}
	producer := pkgkafka.NewProducer(kafkaCfg)
	defer producer.Close()

	publisher := kafka.NewEventPublisher(producer, cfg.Kafka.LoanEventsTopic, logger)
	notifier := kafka.NewNotifier(producer, cfg.Kafka.NotificationsTopic, cfg.Kafka.NotifyRate, cfg.Kafka.NotifyBurst, logger)

	// Domain services.
	scoring := service.NewCreditScoreEngine()
	accrual := service.NewInterestAccrualEngine(cfg.Engine.AccrualIncludeOverdue)
	risk := service.NewMinimumPaymentRiskEngine()
	ledger := service.NewInstallmentLedger(service.LateFeePolicy{CapRatio: cfg.LateFeeCap()})
	reconciler := service.NewBalanceReconciler()

	// Use cases.
	runner := usecase.NewBatchRunner(cfg.Schedule.Concurrency, jobRuns, jobMetrics, logger)
	jobs := usecase.NewJobRegistry(
		usecase.NewAccrueOverdueInterestUseCase(loanRepo, charges, publisher, notifier, accrual, runner, logger),
		usecase.NewCheckMinimumPaymentsUseCase(loanRepo, publisher, notifier, risk, runner, logger),
		usecase.NewUpdateInstallmentStatusesUseCase(installments, loanRepo, publisher, ledger, runner, logger),
		usecase.NewRecalculateCreditScoresUseCase(customers, loanRepo, payments, publisher, scoring, cfg.Engine.AdjustCreditLimits, runner, logger),
	)
	reconcileUC := usecase.NewReconcileLoanBalanceUseCase(loanRepo, payments, items, publisher, reconciler)
	minimumUC := usecase.NewRecordMinimumPaymentUseCase(loanRepo, publisher, cfg.Engine.ResetMissedOnPayment)
	paymentEventsUC := usecase.NewProcessPaymentEventUseCase(reconcileUC, minimumUC, loanRepo, logger)

	// Payment events consumer.
	consumer := pkgkafka.NewConsumer(kafkaCfg, cfg.Kafka.PaymentsTopic,
		kafka.NewPaymentEventHandler(paymentEventsUC, logger), logger)
	defer consumer.Close()

	// gRPC admin server.
	handler := grpcPresentation.NewAdminHandler(grpcPresentation.UseCases{
		Jobs:                 jobs,
		ListJobRuns:          usecase.NewListJobRunsUseCase(jobRuns, jobs),
		OpenLoan:             usecase.NewOpenLoanUseCase(customers, items, loanRepo, publisher),
		ReconcileLoan:        reconcileUC,
		GetCreditProfile:     usecase.NewGetCreditProfileUseCase(customers, loanRepo, payments, scoring),
		RecordMinimumPayment: minimumUC,
		ForfeitLoan:          usecase.NewForfeitLoanUseCase(loanRepo, items, publisher),
	}, logger)
	grpcServer := grpcPresentation.NewServer(handler, logger, grpcPresentation.ServerOptions{
		Reflection: cfg.GRPCReflection,
	})

	// HTTP server (health checks and metrics).
	mux := http.NewServeMux()
	rest.NewHealthHandler(cfg.ServiceName, map[string]rest.ReadinessCheck{
		"postgres": func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
	}, metrics.Handler, logger).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Scheduler is built before anything starts so a bad cron spec fails fast.
	var sched *scheduler.Scheduler
	if cfg.Schedule.Enabled {
		if sched, err = newScheduler(cfg.Schedule, jobs, logger); err != nil {
			return err
		}
	}

	// Start everything.
	errCh := make(chan error, 3)
	var wg sync.WaitGroup

	go func() {
		if err := grpcServer.Serve(cfg.GRPCAddr()); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "port", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := consumer.Start(ctx); err != nil {
			errCh <- fmt.Errorf("payment consumer error: %w", err)
		}
	}()

	if sched != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sched.Start(ctx)
		}()
	}

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("component failed", "error", err)
	}
	cancel()

	// Graceful shutdown.
	grpcServer.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	// A job in progress stops starting new items once ctx is cancelled.
	wg.Wait()

	logger.Info("loanengine stopped")
	return nil
}

func newScheduler(sc config.ScheduleConfig, jobs *usecase.JobRegistry, logger *slog.Logger) (*scheduler.Scheduler, error) {
	loc, err := time.LoadLocation(sc.Location)
	if err != nil {
		return nil, fmt.Errorf("schedule location: %w", err)
	}

	return scheduler.New(jobs, scheduler.Config{
		Groups: []scheduler.Group{
			{
				Name: "daily",
				Spec: sc.DailyCron,
				Jobs: []string{
					usecase.JobAccrueOverdueInterest,
					usecase.JobCheckMinimumPayments,
					usecase.JobUpdateInstallmentStatuses,
				},
			},
			{
				Name: "weekly",
				Spec: sc.WeeklyCron,
				Jobs: []string{usecase.JobRecalculateCreditScores},
			},
		},
		Location: loc,
	}, logger)
}
