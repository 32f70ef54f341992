package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/dentcheck/internal/config"
	"github.com/HendryAvila/dentcheck/internal/metrics"
	dcserver "github.com/HendryAvila/dentcheck/internal/server"
)

const metricsShutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio transport)",
		Long: `Start the MCP server on stdin/stdout.

Add it to your MCP host config:

  {
    "mcpServers": {
      "dentcheck": {
        "command": "dentcheck",
        "args": ["serve"]
      }
    }
  }

With --metrics-addr (or DENTCHECK_METRICS_ADDR) a Prometheus endpoint is
served on /metrics next to a /healthz probe.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().String("metrics-addr", "", "Serve /metrics and /healthz on this address, e.g. :9464")
	_ = a.v.BindPFlag(config.KeyMetricsAddr, cmd.Flags().Lookup("metrics-addr"))
	cmd.Flags().String("default-family", "", "Aircraft family used when a request names none")
	_ = a.v.BindPFlag(config.KeyDefaultAircraftFamily, cmd.Flags().Lookup("default-family"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	s, cleanup, err := dcserver.New(a.cfg, a.log, m)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	if a.cfg.MetricsAddr != "" {
		ms := metrics.NewServer(a.cfg.MetricsAddr, reg)
		go func() {
			a.log.Info().Str("addr", ms.Addr).Msg("metrics server listening")
			if err := ms.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("metrics server")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), metricsShutdownTimeout)
			defer cancel()
			if err := ms.Shutdown(shutdownCtx); err != nil {
				a.log.Warn().Err(err).Msg("metrics server shutdown")
			}
		}()
	}

	// ServeStdio handles SIGINT/SIGTERM itself.
	return server.ServeStdio(s)
}
