package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"kas/internal/amqp"
	"kas/internal/backend"
	"kas/internal/backup"
	s3sink "kas/internal/backup/s3"
	"kas/internal/cli"
	"kas/internal/config"
	"kas/internal/log"
	"kas/internal/metrics"
	gsheet "kas/internal/sheets/google"
	"kas/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel).WithComponent(log.ComponentWorker)
	logger.Info("Starting kas-worker", "backend", cfg.DataBackend)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if !cfg.BackupsEnabled() {
		return errors.New("no backup target configured: set BACKUP_DIR, BACKUP_S3_BUCKET or GOOGLE_SPREADSHEET_ID")
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer res.Close()

	var sinks []backup.Sink
	if cfg.BackupDir != "" {
		sinks = append(sinks, backup.NewDirSink(cfg.BackupDir))
		logger.Info("Directory backups enabled", "dir", cfg.BackupDir)
	}
	if cfg.BackupS3Bucket != "" {
		s3, err := s3sink.New(ctx, s3sink.Config{
			Region:    cfg.BackupS3Region,
			Bucket:    cfg.BackupS3Bucket,
			Prefix:    cfg.BackupS3Prefix,
			Endpoint:  cfg.BackupS3Endpoint,
			PathStyle: cfg.BackupS3PathStyle,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, s3)
		logger.Info("S3 backups enabled", "bucket", cfg.BackupS3Bucket)
	}

	var mirrors []worker.Mirror
	if cfg.SheetsEnabled() {
		sheets, err := gsheet.New(ctx, gsheet.Config{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			SheetName:       cfg.GoogleSheetName,
			CredentialsJSON: cfg.GoogleCredentialsJSON,
			CredentialsFile: cfg.GoogleCredentialsFile,
			Currency:        cfg.Currency,
		}, logger)
		if err != nil {
			return err
		}
		mirrors = append(mirrors, sheets)
		logger.Info("Google Sheets mirror enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	}

	m := metrics.New()
	w := worker.NewBackupWorker(res.Store, sinks, mirrors, worker.WithRecorder(m), worker.WithLogger(logger))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Run(ctx, cfg.BackupInterval) })

	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		g.Go(func() error { return client.ConsumeLedgerEvents(ctx, w.HandleLedgerEvent) })
	} else {
		logger.Info("AMQP disabled, backing up on interval only", "interval", cfg.BackupInterval)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
