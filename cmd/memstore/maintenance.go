package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/memstore/pkg/metrics"
)

func newMaintenanceCmd(a *app) *cobra.Command {
	var interval time.Duration
	var metricsAddr string
	var once bool

	cmd := &cobra.Command{
		Use:   "maintenance",
		Short: "Purge expired tombstones, once or on an interval",
		Long: `Sweep the configured collections and permanently remove tombstones older
than the retention horizon. Without --once the sweep repeats every --interval
until interrupted, optionally serving Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				interval = a.cfg.Maintenance.Interval
			}
			if metricsAddr == "" && a.cfg.Observability.EnableMetrics {
				metricsAddr = a.cfg.Observability.MetricsAddr
			}

			db, err := a.openDatabase()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if once {
				purged, err := db.RunMaintenance(ctx)
				if err != nil {
					return err
				}
				return printJSON(purged)
			}

			if metricsAddr != "" {
				srv := serveMetrics(metricsAddr, a.log)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			a.log.Info("maintenance loop started",
				zap.Duration("interval", interval),
				zap.Strings("collections", a.cfg.Maintenance.Collections))

			err = db.RunMaintenanceLoop(ctx, interval, func(purged map[string]int) {
				a.log.Info("sweep complete", zap.Any("purged", purged))
			})
			if ctx.Err() != nil {
				a.log.Info("maintenance loop stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Time between sweeps (default from config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single sweep and print the purge counts")
	return cmd
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
