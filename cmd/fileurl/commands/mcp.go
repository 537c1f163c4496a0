package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/fileurl/internal/observability"
	"github.com/Sumatoshi-tech/fileurl/pkg/mcp"
)

const (
	flagDebug       = "debug"
	flagMetricsAddr = "metrics-addr"

	metricsPath              = "/metrics"
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
)

// ErrNoMetricsHandler is returned when --metrics-addr is set but no Prometheus handler was built.
var ErrNoMetricsHandler = errors.New("metrics handler not initialized")

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	return newMCPCommandWithDeps(observability.Init)
}

func newMCPCommandWithDeps(obsInit observabilityInit) *cobra.Command {
	var (
		debug       bool
		metricsAddr string
		branchName  string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The MCP server exposes the resolver as tools that AI agents can discover and
invoke:
  - fileurl_resolve: GitHub link for one file, optionally with a line range
  - fileurl_resolve_many: GitHub links for several files at once`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cobraCmd)
			if err != nil {
				return err
			}

			obsCfg, err := observabilityConfig(cfg, observability.ModeMCP, debug || boolFlag(cobraCmd, flagVerbose))
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			obsCfg.LogJSON = true
			obsCfg.Prometheus = metricsAddr != ""

			providers, err := obsInit(obsCfg)
			if err != nil {
				return fmt.Errorf("init observability: %w", err)
			}

			defer func() {
				shutdownErr := providers.Shutdown(context.Background())
				if shutdownErr != nil {
					providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
				}
			}()

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			if metricsAddr != "" {
				stop, serveErr := serveMetrics(metricsAddr, providers, red)
				if serveErr != nil {
					return serveErr
				}

				defer stop()
			}

			composer, err := buildComposer(cfg, composerSettings{branch: branchName}, providers.Logger, providers.Tracer)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Composer: composer,
				Logger:   providers.Logger,
				Metrics:  red,
				Tracer:   providers.Tracer,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, flagDebug, false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&metricsAddr, flagMetricsAddr, "", "Serve Prometheus metrics on this address (e.g. :9464)")
	cmd.Flags().StringVar(&branchName, flagBranch, "", "use this branch instead of reading HEAD")

	return cmd
}

// serveMetrics exposes the Prometheus handler until the returned stop func is called.
func serveMetrics(addr string, providers observability.Providers, red *observability.REDMetrics) (func(), error) {
	if providers.MetricsHandler == nil {
		return nil, ErrNoMetricsHandler
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle(metricsPath, observability.HTTPMiddleware(providers.Tracer, red, providers.MetricsHandler))

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(providers.Logger.Handler(), slog.LevelError),
	}

	go func() {
		serveErr := server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			providers.Logger.Error("metrics server stopped", "error", serveErr)
		}
	}()

	providers.Logger.Info("serving metrics", "addr", listener.Addr().String(), "path", metricsPath)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		_ = server.Shutdown(ctx)
	}, nil
}
