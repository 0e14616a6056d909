// cmd/trustscan/serve.go
package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"trustscan/internal/adapters/httpapi"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/config"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/ui"
)

// purgeInterval frecuencia de limpieza de reportes expirados.
const purgeInterval = time.Hour

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}

			logger := newLogger(cfg, false)
			ctx := cmd.Context()

			a, err := newApp(ctx, cfg, logger, ui.NewNoopPresenter())
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.Warn("cleanup failed", "error", err.Error())
				}
			}()

			stopPurge := startPurgeLoop(ctx, a.store, purgeInterval, logger)
			defer stopPurge()

			server := httpapi.New(a.service, httpapi.Config{
				Addr:               cfg.Server.Addr,
				RateLimitPerMinute: cfg.Server.RateLimitPerMinute,
				CORSOrigin:         cfg.Server.CORSOrigin,
				ShutdownTimeout:    time.Duration(cfg.Server.ShutdownTimeoutS) * time.Second,
				Logger:             logger,
			})

			logger.Info("trustscan api starting",
				"version", version,
				"addr", cfg.Server.Addr,
				"rate_limit", cfg.Server.RateLimitPerMinute,
			)
			return server.ListenAndServe(ctx)
		},
	}
}

// startPurgeLoop borra periódicamente los reportes expirados del store.
func startPurgeLoop(ctx context.Context, store ports.ReportStore, interval time.Duration, logger logx.Logger) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				n, err := store.PurgeExpired(ctx, now)
				if err != nil {
					logger.Warn("purge expired reports failed", "error", err.Error())
					continue
				}
				if n > 0 {
					logger.Debug("purged expired reports", "count", n)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
