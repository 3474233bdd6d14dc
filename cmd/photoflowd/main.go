package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	imagehandler "photoflow/internal/api/handlers/image"
	prefshandler "photoflow/internal/api/handlers/prefs"
	processhandler "photoflow/internal/api/handlers/process"
	"photoflow/internal/api/router"
	"photoflow/internal/api/server"
	"photoflow/internal/config"
	"photoflow/internal/infra/kafka/consumer"
	"photoflow/internal/infra/kafka/producer"
	jobmsg "photoflow/internal/kafka/handlers/job"
	"photoflow/internal/processor"
	"photoflow/internal/queue"
	imagerepo "photoflow/internal/repository/image"
	jobrepo "photoflow/internal/repository/job"
	prefsrepo "photoflow/internal/repository/prefs"
	"photoflow/internal/service/editor"
	"photoflow/internal/storage/file"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Connect to PostgreSQL (master and slaves).
	opts := &dbpg.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}

	slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
	for _, s := range cfg.Database.Slaves {
		slaveDSNs = append(slaveDSNs, s.DSN())
	}

	db, err := dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Retry strategy for Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Initialize file storage (MinIO).
	storage, err := file.NewStorage(ctx, cfg.Storage.Endpoint, cfg.Storage.AccessKey, cfg.Storage.SecretKey, cfg.Storage.BucketName, cfg.Storage.UseSSL)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
	}

	// Repositories, pipeline, producer and the service layer.
	images := imagerepo.NewRepository(db)
	jobs := jobrepo.NewRepository(db)
	prefs := prefsrepo.NewRepository(db)

	var procOpts []processor.Option
	if cfg.Processing.FontPath != "" {
		procOpts = append(procOpts, processor.WithFontPath(cfg.Processing.FontPath))
	}
	if cfg.Processing.MaxPixels > 0 {
		procOpts = append(procOpts, processor.WithMaxPixels(cfg.Processing.MaxPixels))
	}
	if cfg.Processing.ThumbnailSize > 0 {
		procOpts = append(procOpts, processor.WithThumbnailSize(cfg.Processing.ThumbnailSize))
	}
	pipeline := processor.New(storage, procOpts...)

	p := producer.New(&cfg.Kafka, strategy)
	service := editor.NewService(storage, p, pipeline, images, jobs, prefs, cfg.Processing.MaxUploadBytes)

	// In-process priority queue drained by a single worker.
	q := queue.New(service)

	// Kafka message handler feeding requested jobs into the queue.
	requestedHandler := jobmsg.NewRequestedHandler(q, service)

	// HTTP handlers.
	imgHandler := imagehandler.NewHandler(service)
	procHandler := processhandler.NewHandler(service)
	prefHandler := prefshandler.NewHandler(service)

	// Kafka consumer for process-requested events.
	c := consumer.New(&cfg.Kafka, strategy, requestedHandler)

	// Start queue worker and Kafka consumer in separate goroutines.
	var wg sync.WaitGroup
	wg.Add(2)
	go q.Run(ctx, &wg)
	go c.Consume(ctx, &wg)

	// Start HTTP server in a separate goroutine.
	r := router.Setup(imgHandler, procHandler, prefHandler)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		if err := s.ListenAndServe(); err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for the queue worker and Kafka consumer goroutines to finish.
	wg.Wait()

	// Graceful shutdown with timeout for HTTP server.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	// Close master and slave databases.
	if err := db.Master.Close(); err != nil {
		zlog.Logger.Printf("failed to close master DB: %v", err)
	}
	for i, slave := range db.Slaves {
		if err := slave.Close(); err != nil {
			zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
		}
	}

	// Close Kafka producer and consumer clients.
	if err = p.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
	}
	if err = c.Client.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
	}
}
