package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"

	"github.com/vodbackup/uploader/internal/account"
	"github.com/vodbackup/uploader/internal/config"
	"github.com/vodbackup/uploader/internal/health"
	"github.com/vodbackup/uploader/internal/logger"
	"github.com/vodbackup/uploader/internal/observability"
	"github.com/vodbackup/uploader/internal/render"
	"github.com/vodbackup/uploader/internal/storage"
	"github.com/vodbackup/uploader/internal/uploader"
)

const (
	serviceName = "vod-uploader"

	awsConfigTimeout = 10 * time.Second
	shutdownTimeout  = 5 * time.Second
	startupTimeout   = 30 * time.Second
)

func main() {
	log := logger.New()
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		logger.Info(context.Background(), log, "No .env file found, relying on system ENV variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error(context.Background(), log, "Invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := observability.InitTracer(context.Background(), serviceName, cfg.Observability.OTLPEndpoint, cfg.Environment)
	if err != nil {
		logger.Error(context.Background(), log, "Failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error(context.Background(), log, "Failed to shutdown tracer", "error", err)
		}
	}()

	awsCtx, awsCancel := context.WithTimeout(context.Background(), awsConfigTimeout)
	defer awsCancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(awsCtx, awsconfig.WithRegion(cfg.AWS.Region))
	if err != nil {
		logger.Error(context.Background(), log, "Failed to load AWS config", "error", err)
		os.Exit(1)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	store := storage.New(dynamoClient, cfg.AWS.DynamoDBTable)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), startupTimeout)
	defer startupCancel()

	users, err := store.ListUsers(startupCtx)
	if err != nil {
		logger.Error(context.Background(), log, "Failed to list users", "error", err)
		os.Exit(1)
	}

	registry, err := account.NewRegistry(startupCtx, &cfg.Platform, users, log)
	if err != nil {
		logger.Error(context.Background(), log, "Failed to build account registry", "error", err)
		os.Exit(1)
	}

	uploaderCfg := &uploader.Config{
		Store:     store,
		Registry:  registry,
		Engine:    render.NewEngine(cfg.Platform.DescriptionTemplate),
		AppConfig: cfg,
		Logger:    log,
	}

	healthCfg := health.DefaultConfig(serviceName, log)
	healthCfg.DynamoDBClient = dynamoClient
	healthCfg.DynamoDBTable = cfg.AWS.DynamoDBTable
	healthCfg.DownloadRoot = cfg.Uploader.DownloadRoot

	if cfg.ArchiveEnabled() {
		s3Client := s3.NewFromConfig(awsCfg)
		uploaderCfg.Archiver = uploader.NewS3Archiver(s3Client, cfg.AWS.ArchiveBucket, log)
		healthCfg.S3Client = s3Client
		healthCfg.S3Bucket = cfg.AWS.ArchiveBucket
	}
	if cfg.EventsEnabled() {
		sqsClient := sqs.NewFromConfig(awsCfg)
		uploaderCfg.Notifier = uploader.NewSQSNotifier(sqsClient, cfg.AWS.EventsQueue, log)
		healthCfg.SQSClient = sqsClient
		healthCfg.SQSQueueURL = cfg.AWS.EventsQueue
	}

	up := uploader.New(uploaderCfg)

	metricsServer := startMetricsServer(cfg.Uploader.MetricsPort, health.NewChecker(healthCfg), log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info(context.Background(), log, "Shutting down uploader...")
		cancel()
	}()

	run(ctx, cfg, up, log)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(context.Background(), log, "Failed to shutdown metrics server", "error", err)
	}
}

// run executes one upload batch, or keeps running on an interval when
// RUN_INTERVAL is configured.
func run(ctx context.Context, cfg *config.Config, up *uploader.Uploader, log *slog.Logger) {
	if err := up.Run(ctx); err != nil {
		logger.Error(ctx, log, "Upload run failed", "error", err)
	}

	if cfg.Uploader.RunInterval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.Uploader.RunInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := up.Run(ctx); err != nil {
				logger.Error(ctx, log, "Upload run failed", "error", err)
			}
		}
	}
}

func startMetricsServer(port int, checker *health.Checker, log *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", checker.Handler())
	mux.HandleFunc("/health/deep", checker.DeepHandler())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info(context.Background(), log, "Starting metrics server", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), log, "Metrics server error", "error", err)
		}
	}()

	return server
}
