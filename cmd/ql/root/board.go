package root

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"questlife/internal/engine"
	qlog "questlife/internal/log"
	"questlife/internal/tui"
)

func newBoardCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = cfg.MetricsAddr
			}
			var opts []engine.Option
			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				opts = append(opts, engine.WithMetrics(reg))
				stop := serveMetrics(metricsAddr, reg)
				defer stop()
			}

			svc, cleanup, err := openService(ctx, opts...)
			if err != nil {
				return err
			}
			defer cleanup()

			// Log lines would tear the board.
			if !verbose {
				qlog.SetOutput(io.Discard)
			}
			return tui.RunBoard(ctx, svc, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while the board runs (e.g. :9090)")
	return cmd
}

// serveMetrics exposes reg on addr/metrics and returns a shutdown func.
func serveMetrics(addr string, reg *prometheus.Registry) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			qlog.Error("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	qlog.Info("serving metrics", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		qlog.CloseError("metrics server", srv.Shutdown(ctx))
	}
}
