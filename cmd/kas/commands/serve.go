package commands

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"kas/internal/amqp"
	apphttp "kas/internal/http"
	"kas/internal/ledger"
	"kas/internal/log"
	"kas/internal/metrics"
	"kas/internal/storage"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	m := metrics.New()
	opts := []ledger.Option{ledger.WithRecorder(m)}

	if a.cfg.EventsEnabled() {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, a.logger)
		if err != nil {
			// Events are best effort; the API works without them.
			a.logger.Warn("AMQP unavailable, serving without change events", log.FieldError, err)
		} else {
			defer client.Close()
			opts = append(opts, ledger.WithNotifier(client))
			a.logger.Info("Publishing change events", "exchange", a.cfg.AMQPExchange)
		}
	}

	book := a.openBook(ctx, opts...)
	store := a.backend.Store
	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + a.cfg.Port,
		Currency:           a.cfg.Currency,
		RateLimitPerMinute: a.cfg.RateLimitPerMinute,
		ReportCacheTTL:     a.cfg.ReportCacheTTL,
		TrustedProxies:     a.cfg.TrustedProxies,
	}, book, m, a.logger, apphttp.WithReadiness(func(ctx context.Context) error {
		if _, err := store.Load(ctx); err != nil && !errors.Is(err, storage.ErrNoData) {
			return err
		}
		return nil
	}))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting kas server", "port", a.cfg.Port, "backend", a.cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
