package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-reconciler/internal/api/handlers/job"
	"github.com/aliskhannn/image-reconciler/internal/api/router"
	"github.com/aliskhannn/image-reconciler/internal/api/server"
	"github.com/aliskhannn/image-reconciler/internal/config"
	"github.com/aliskhannn/image-reconciler/internal/infra/kafka/consumer"
	"github.com/aliskhannn/image-reconciler/internal/infra/kafka/producer"
	requestmsg "github.com/aliskhannn/image-reconciler/internal/kafka/handlers/job"
	"github.com/aliskhannn/image-reconciler/internal/processor"
	"github.com/aliskhannn/image-reconciler/internal/reconciler"
	jobrepo "github.com/aliskhannn/image-reconciler/internal/repository/job"
	jobsvc "github.com/aliskhannn/image-reconciler/internal/service/job"
	"github.com/aliskhannn/image-reconciler/internal/storage/file"
	"github.com/aliskhannn/image-reconciler/internal/storage/object"
)

func main() {
	// Context & signals: used for graceful shutdown on system interrupts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize logger and load application configuration.
	zlog.Init()
	cfg := config.MustLoad("./config/config.yml")

	// Retry strategy for the mirror, Kafka and other external calls.
	strategy := retry.Strategy{
		Attempts: cfg.Retry.Attempts,
		Delay:    cfg.Retry.Delay,
		Backoff:  cfg.Retry.Backoff,
	}

	// Local directories: upload staging and the image target.
	uploads, err := file.NewStorage(cfg.Paths.UploadDir)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}
	images, err := file.NewStorage(cfg.Paths.TargetDir)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to prepare target directory")
	}

	// Optional mirror of copied images to object storage (MinIO).
	var recOpts []reconciler.Option
	if m := cfg.Storage.Mirror; m.Enabled {
		mirror, err := object.NewStorage(ctx, m.Endpoint, m.AccessKey, m.SecretKey, m.BucketName, m.Prefix, m.UseSSL, strategy)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to storage")
		}
		recOpts = append(recOpts, reconciler.WithMirror(mirror))
	}

	var svcOpts []jobsvc.Option

	// Optional job history in PostgreSQL (master and slaves).
	var db *dbpg.DB
	if cfg.Database.Enabled {
		opts := &dbpg.Options{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		}

		slaveDSNs := make([]string, 0, len(cfg.Database.Slaves))
		for _, s := range cfg.Database.Slaves {
			slaveDSNs = append(slaveDSNs, s.DSN())
		}

		db, err = dbpg.New(cfg.Database.Master.DSN(), slaveDSNs, opts)
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		svcOpts = append(svcOpts, jobsvc.WithRepository(jobrepo.NewRepository(db)))
	}

	// Optional job events in Kafka.
	var p *producer.Producer
	if cfg.Kafka.Enabled {
		p = producer.New(&cfg.Kafka, strategy)
		svcOpts = append(svcOpts, jobsvc.WithPublisher(p))
	}

	// Initialize reconciler, processor and service layer.
	rec := reconciler.New(images, recOpts...)
	service := jobsvc.NewService(uploads, rec, processor.New(images), svcOpts...)

	// Start Kafka consumer for reconcile requests in a separate goroutine.
	var (
		wg sync.WaitGroup
		c  *consumer.Consumer
	)
	if cfg.Kafka.Enabled && cfg.Kafka.RequestsTopic != "" {
		c = consumer.New(&cfg.Kafka, strategy, requestmsg.NewRequestHandler(service))
		wg.Add(1)
		go c.Consume(ctx, &wg)
	}

	// Start HTTP server in a separate goroutine.
	h := job.NewHandler(service, cfg.Server.MaxUploadMB)
	r := router.Setup(h, cfg.Server.FrontendDir)
	s := server.New(cfg.Server.HTTPPort, r)
	go func() {
		zlog.Logger.Info().Str("addr", cfg.Server.HTTPPort).Msg("server is running")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Block until context is canceled (SIGINT/SIGTERM).
	<-ctx.Done()
	zlog.Logger.Info().Msg("context done")

	// Wait for Kafka consumer goroutine to finish.
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
	if db != nil {
		if err := db.Master.Close(); err != nil {
			zlog.Logger.Printf("failed to close master DB: %v", err)
		}
		for i, s := range db.Slaves {
			if err := s.Close(); err != nil {
				zlog.Logger.Printf("failed to close slave DB %d: %v", i, err)
			}
		}
	}

	// Close Kafka producer and consumer clients.
	if p != nil {
		if err := p.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka producer client")
		}
	}
	if c != nil {
		if err := c.Client.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close kafka consumer client")
		}
	}
}
