// Entry point for the payroll sync worker
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"timesheetsync.service/internal/config"
	"timesheetsync.service/internal/core"
	"timesheetsync.service/internal/ports/messaging"
	"timesheetsync.service/internal/ports/payroll"
	"timesheetsync.service/internal/ports/repository"
	"timesheetsync.service/internal/ports/scheduling"
	"timesheetsync.service/internal/worker"
	syncworker "timesheetsync.service/internal/worker/sync"
	"timesheetsync.service/pkg/aws"
	"timesheetsync.service/pkg/database"
	"timesheetsync.service/pkg/logger"
	"timesheetsync.service/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("timesheet-sync-worker", cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// DB connection
	db, err := database.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	// AWS SDK Config
	awsCfg, err := aws.NewAWSConfig(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	// Initialize dependencies
	sqsClient := sqs.NewFromConfig(awsCfg)
	sesClient := ses.NewFromConfig(awsCfg)

	repo := repository.NewTimesheetRepository(db)
	payrollClient := payroll.NewHTTPClient(cfg.PayrollAPIURL, cfg.PayrollAPIToken, cfg.PayrollTenantID)
	scheduler := scheduling.NewHTTPScheduler(cfg.SchedulerAPIURL)
	producer := messaging.NewSQSProducer(sqsClient, cfg.SyncSQSQueueURL, cfg.SettlementSQSQueueURL)
	coordinator := core.NewCoordinator(repo, scheduler, producer)
	orchestrator := core.NewOrchestrator(repo, payrollClient)
	alerts := core.NewSESAlertService(sesClient, cfg.AlertSender, cfg.AlertRecipient)

	processor := syncworker.NewProcessor(repo, orchestrator, coordinator, alerts)

	// Start Worker
	ctx, cancel := context.WithCancel(context.Background())
	app := worker.NewWorker(sqsClient, cfg.SyncSQSQueueURL, processor)

	go func() {
		app.Start(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info().Msg("Shutting down worker...")

	// Cancel the context to signal the worker to stop polling.
	cancel()

	log.Info().Msg("Worker exited gracefully")
}
